package validation

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var v *validator.Validate

// Validator returns a singleton validator with custom rules registered.
func Validator() *validator.Validate {
	if v == nil {
		v = validator.New()
		// Custom: MongoDB collection name restrictions
		_ = v.RegisterValidation("collname", func(fl validator.FieldLevel) bool {
			s := strings.TrimSpace(fl.Field().String())
			if s == "" || len(s) > 235 {
				return false
			}
			if strings.ContainsAny(s, "$\x00") {
				return false
			}
			return !strings.HasPrefix(s, "system.")
		})
		// Custom: 24-hex-character ObjectID encoding
		_ = v.RegisterValidation("objectid", func(fl validator.FieldLevel) bool {
			s := strings.TrimSpace(fl.Field().String())
			if s == "" {
				return true // empty is allowed; use with omitempty
			}
			return primitive.IsValidObjectID(s)
		})
		// Custom: filter/query strings must parse as Extended JSON documents
		_ = v.RegisterValidation("extjson", func(fl validator.FieldLevel) bool {
			s := strings.TrimSpace(fl.Field().String())
			if s == "" {
				return true // empty means "no filter"; pair with omitempty
			}
			var doc bson.M
			return bson.UnmarshalExtJSON([]byte(s), true, &doc) == nil
		})
	}
	return v
}

// ParseFilter decodes an Extended JSON filter string into a document. An
// empty string yields an empty (match-all) document; callers run the result
// through the operation guard before any write.
func ParseFilter(s string) (bson.M, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return bson.M{}, nil
	}
	var doc bson.M
	if err := bson.UnmarshalExtJSON([]byte(s), true, &doc); err != nil {
		return nil, fmt.Errorf("validation: parse filter: %w", err)
	}
	return doc, nil
}

// ValidateStruct validates a struct and returns a user-friendly error string
// suitable for MCP tool errors. Returns empty string when valid.
func ValidateStruct(s any) string {
	if err := Validator().Struct(s); err != nil {
		if ve, ok := err.(validator.ValidationErrors); ok && len(ve) > 0 {
			fe := ve[0]
			field := strings.ToLower(fe.Field())
			switch fe.Tag() {
			case "required":
				return fmt.Sprintf("VALIDATION: %s is required", field)
			case "collname":
				return fmt.Sprintf("VALIDATION: %s is not a valid collection name (no '$', no null bytes, no system. prefix)", field)
			case "objectid":
				return fmt.Sprintf("VALIDATION: %s must be a 24-character hex ObjectID", field)
			case "extjson":
				return fmt.Sprintf("VALIDATION: %s must be an Extended JSON document (e.g. {\"status\": \"active\"})", field)
			case "oneof":
				return fmt.Sprintf("VALIDATION: %s must be one of: %s", field, fe.Param())
			case "min", "max", "gte", "lte":
				return fmt.Sprintf("VALIDATION: %s must satisfy %s=%s", field, fe.Tag(), fe.Param())
			}
			// Fallback generic
			return fmt.Sprintf("VALIDATION: invalid %s", field)
		}
		return "VALIDATION: invalid inputs"
	}
	return ""
}
