package auth_usecases

import (
	"fmt"
	"os"

	"github.com/golang-jwt/jwt/v4"

	"veriface.io/infrastructure/auth"
	"veriface.io/infrastructure/database/repository/cache"
	"veriface.io/infrastructure/logger"
)

type UserAuthResult struct {
	IsAuthenticated bool
	UserID          string
	Email           string
	FirstName       string
	LastName        string
	UserAgent       string
	DeviceID        string
	FaceVerified    bool
	ErrorMessage    string
}

// IsUserSignedIn validates the bearer token against its claims and the
// session record in the cache. requireFaceVerified gates routes that
// must only be reachable after a successful face match.
func IsUserSignedIn(authToken string, deviceID string, requireFaceVerified bool) UserAuthResult {
	result := UserAuthResult{
		IsAuthenticated: false,
	}

	if authToken == "" {
		result.ErrorMessage = "missing auth token"
		return result
	}

	validAccessToken, err := auth.DecodeAuthToken(authToken)
	if err != nil {
		result.ErrorMessage = "this session has expired"
		return result
	}

	authTokenClaims, ok := validAccessToken.Claims.(jwt.MapClaims)
	if !ok {
		result.ErrorMessage = "unauthorised access"
		return result
	}

	if authTokenClaims["iss"] != os.Getenv("JWT_ISSUER") {
		logger.Warning("attempt to access account with tampered jwt", logger.LoggerOptions{
			Key:  "token claims",
			Data: authTokenClaims,
		})
		result.ErrorMessage = "unauthorised access"
		return result
	}

	if deviceID != "" && authTokenClaims["deviceID"] != deviceID {
		logger.Warning("client made request using device id different from that in access token", logger.LoggerOptions{
			Key:  "token device id",
			Data: authTokenClaims["deviceID"],
		}, logger.LoggerOptions{
			Key:  "request device id",
			Data: deviceID,
		})
		result.ErrorMessage = "unauthorised access"
		return result
	}

	userID, _ := authTokenClaims["userID"].(string)
	sessionToken := cache.Cache.FindOne(fmt.Sprintf("%s-session", userID))
	if sessionToken == nil || *sessionToken != authToken {
		result.ErrorMessage = "this session has expired"
		return result
	}

	if authTokenClaims["tokenType"] != "access_token" {
		result.ErrorMessage = "unauthorised access"
		return result
	}

	faceVerified, _ := authTokenClaims["faceVerified"].(bool)
	if requireFaceVerified && !faceVerified {
		result.ErrorMessage = "complete face verification before trying to use this route"
		return result
	}

	result.IsAuthenticated = true
	result.UserID = userID
	result.Email, _ = authTokenClaims["email"].(string)
	result.FirstName, _ = authTokenClaims["firstName"].(string)
	result.LastName, _ = authTokenClaims["lastName"].(string)
	result.UserAgent, _ = authTokenClaims["userAgent"].(string)
	result.DeviceID, _ = authTokenClaims["deviceID"].(string)
	result.FaceVerified = faceVerified

	return result
}
