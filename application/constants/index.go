package constants

// veriface response codes
// these consist of 4 digit numbers
//
// the 1st 3 are randomly generated but represent specific scenarios
// 4th indicates if the response requires user interaction through a dialog box. 0 means it does not require. 1 means it requires.

var ACCOUNT_CREATED uint = 9110            // take the user to the face enrollment page
var ACCOUNT_EXISTS uint = 9120             // take the user to the login page
var FACE_NOT_ENROLLED uint = 4310          // take the user to the face enrollment page
var FACE_ENROLLMENT_REJECTED uint = 4321   // ask the user to retake the enrollment burst
var FACE_NOT_DETECTED uint = 4330          // ask the user to centre their face and retry
var FACE_MATCH_AMBIGUOUS uint = 4341       // ask the user to retry in better lighting
var FACE_INDEX_NOT_READY uint = 5310       // ask the user to retry shortly

var MIN_ENROLLMENT_FRAMES = 3
var MAX_ENROLLMENT_FRAMES = 10

var SUPPORT_EMAIL = "help@veriface.io"
