package validator

import (
	"mime"
	"net/url"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
)

var (
	validate  *validator.Validate
	sanitizer *bluemonday.Policy
	initOnce  sync.Once

	slugPattern  = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)
	phonePattern = regexp.MustCompile(`^\+?[0-9 ()\-]{7,20}$`)
	emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	spacePattern = regexp.MustCompile(`\s+`)
	filePattern  = regexp.MustCompile(`[^a-zA-Z0-9._-]`)
)

// Init prepares the shared validator and registers the custom tags on gin's
// binding engine too. It is safe to call more than once.
func Init() {
	initOnce.Do(func() {
		validate = validator.New()
		sanitizer = bluemonday.UGCPolicy()

		registerCustomValidations(validate)

		if engine, ok := binding.Validator.Engine().(*validator.Validate); ok {
			registerCustomValidations(engine)
		}
	})
}

func registerCustomValidations(v *validator.Validate) {
	v.RegisterTagNameFunc(jsonFieldName)
	v.RegisterValidation("slug", validateSlug)
	v.RegisterValidation("no_html", validateNoHTML)
	v.RegisterValidation("phone", validatePhone)
	v.RegisterValidation("course_level", validateCourseLevel)
	v.RegisterValidation("http_url", validateHTTPURL)
}

// jsonFieldName reports fields by their JSON name so error keys match the
// request payload.
func jsonFieldName(field reflect.StructField) string {
	name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
	switch name {
	case "-":
		return ""
	case "":
		return field.Name
	}
	return name
}

func Validate(s interface{}) error {
	Init()
	return validate.Struct(s)
}

func SanitizeHTML(html string) string {
	Init()
	return sanitizer.Sanitize(html)
}

func SanitizeString(s string) string {
	return bluemonday.StrictPolicy().Sanitize(s)
}

func ValidateEmail(email string) bool {
	return emailPattern.MatchString(email)
}

func ValidatePassword(password string) (bool, string) {
	if len(password) < 8 {
		return false, "password must be at least 8 characters long"
	}

	return true, ""
}

// ValidateSlug reports whether value is a lowercase, dash-separated slug.
func ValidateSlug(value string) bool {
	return slugPattern.MatchString(value)
}

// ValidateURL accepts absolute http and https URLs.
func ValidateURL(raw string) bool {
	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return false
	}
	return (parsed.Scheme == "http" || parsed.Scheme == "https") && parsed.Host != ""
}

func validateSlug(fl validator.FieldLevel) bool {
	return ValidateSlug(fl.Field().String())
}

func validateNoHTML(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	return !strings.Contains(value, "<") && !strings.Contains(value, ">")
}

func validatePhone(fl validator.FieldLevel) bool {
	return phonePattern.MatchString(fl.Field().String())
}

func validateCourseLevel(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "BEGINNER", "INTERMEDIATE", "ADVANCED", "ALL_LEVELS":
		return true
	}
	return false
}

func validateHTTPURL(fl validator.FieldLevel) bool {
	return ValidateURL(fl.Field().String())
}

func TrimSpaces(s string) string {
	return strings.TrimSpace(s)
}

func NormalizeSpaces(s string) string {
	return spacePattern.ReplaceAllString(strings.TrimSpace(s), " ")
}

func SanitizeFilename(filename string) string {
	return filePattern.ReplaceAllString(filename, "_")
}

func ValidateFileSize(size int64, maxSize int64) bool {
	return size > 0 && size <= maxSize
}

// ValidateContentType validates that the provided MIME type is in the allowed list
func ValidateContentType(contentType string, allowedMimeTypes []string) bool {
	if contentType == "" || len(allowedMimeTypes) == 0 {
		return false
	}

	// "image/png; charset=utf-8" -> "image/png"
	mimeType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}

	mimeType = strings.ToLower(strings.TrimSpace(mimeType))

	for _, allowed := range allowedMimeTypes {
		allowed = strings.ToLower(strings.TrimSpace(allowed))

		if mimeType == allowed {
			return true
		}

		// "image/*" matches "image/png"
		if strings.HasSuffix(allowed, "/*") {
			prefix := strings.TrimSuffix(allowed, "/*")
			if strings.HasPrefix(mimeType, prefix+"/") {
				return true
			}
		}
	}

	return false
}

// ImageContentTypes are accepted for thumbnails and lesson images.
var ImageContentTypes = []string{
	"image/jpeg",
	"image/png",
	"image/gif",
	"image/webp",
}

// VideoContentTypes are accepted for lesson videos and trailers.
var VideoContentTypes = []string{
	"video/mp4",
	"video/quicktime",
	"video/x-m4v",
	"video/webm",
}

// DocumentContentTypes are accepted for lesson files.
var DocumentContentTypes = []string{
	"application/pdf",
	"text/plain",
	"text/csv",
	"text/markdown",
	"application/json",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	"application/vnd.openxmlformats-officedocument.presentationml.presentation",
	"application/zip",
}

func ValidateImageContentType(contentType string) bool {
	return ValidateContentType(contentType, ImageContentTypes)
}

func ValidateVideoContentType(contentType string) bool {
	return ValidateContentType(contentType, VideoContentTypes)
}

func ValidateDocumentContentType(contentType string) bool {
	return ValidateContentType(contentType, DocumentContentTypes)
}
