package interfaces

import "net/http"

// ApplicationContext carries a parsed request through the framework
// agnostic layers of the app. Ctx is the underlying transport context
// (a *gin.Context for HTTP traffic).
type ApplicationContext[T interface{}] struct {
	Ctx        any
	Body       *T
	Keys       map[string]any
	Header     http.Header
	Query      map[string]any
	Param      map[string]any
	DeviceID   *string
	UserAgent  string
	DeviceName string
}

func (ac *ApplicationContext[T]) GetContextData(key string) any {
	if ac.Keys == nil {
		return nil
	}
	return ac.Keys[key]
}

func (ac *ApplicationContext[T]) GetStringContextData(key string) string {
	value, ok := ac.GetContextData(key).(string)
	if !ok {
		return ""
	}
	return value
}

func (ac *ApplicationContext[T]) GetBoolContextData(key string) bool {
	value, ok := ac.GetContextData(key).(bool)
	if !ok {
		return false
	}
	return value
}

func (ac *ApplicationContext[T]) SetContextData(key string, value any) {
	if ac.Keys == nil {
		ac.Keys = map[string]any{}
	}
	ac.Keys[key] = value
}

func (ac *ApplicationContext[T]) GetHeader(key string) *string {
	value := ac.Header.Get(key)
	return &value
}
