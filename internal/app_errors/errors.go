package app_errors

import "errors"

var ErrUserExists = errors.New("user already exists")
var ErrUserNotFound = errors.New("user not found")
var ErrIncorrectPassword = errors.New("incorrect password")
var ErrInvalidToken = errors.New("invalid token")
var ErrTokenExpired = errors.New("token expired")
var ErrUnknownRole = errors.New("unknown role")
var ErrUnauthorized = errors.New("unauthorized")
var ErrForbidden = errors.New("forbidden")
var ErrNotFound = errors.New("not found")
var ErrValidation = errors.New("validation failed")
var ErrCourseNotFound = errors.New("course not found")
var ErrNotCourseOwner = errors.New("you are not the course teacher")
var ErrJoinCodeNotFound = errors.New("no course matches this join code")
var ErrAlreadyEnrolled = errors.New("already enrolled in course")
var ErrNotEnrolled = errors.New("not enrolled in course")
var ErrQuizNotFound = errors.New("quiz not found")
var ErrQuestionNotFound = errors.New("question not found")
var ErrSubmissionNotFound = errors.New("submission not found")
var ErrMaterialNotFound = errors.New("material not found")
var ErrMaterialSource = errors.New("material needs a url or a file")
var ErrFileSize = errors.New("file size error")
var ErrSessionNotFound = errors.New("session not found")
var ErrAttemptNotFound = errors.New("quiz attempt not found")
var ErrAttemptClosed = errors.New("quiz attempt is no longer running")
var ErrAlreadySubmitted = errors.New("quiz already submitted")
