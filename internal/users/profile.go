package users

import (
	"path"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/angelmondragon/accounts-backend/pkg/config"
	"github.com/angelmondragon/accounts-backend/pkg/db/models"
	"github.com/angelmondragon/accounts-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/accounts-backend/pkg/errors"
	"github.com/angelmondragon/accounts-backend/pkg/jalali"
	"github.com/angelmondragon/accounts-backend/pkg/types"
	"github.com/go-playground/validator/v10"
)

const (
	maxNameLength    = 150
	maxBioLength     = 500
	maxAddressLength = 1000
)

var (
	phonePattern        = regexp.MustCompile(`^09[0-9]{9}$`)
	nationalCodePattern = regexp.MustCompile(`^[0-9]{10}$`)
	fieldValidator      = validator.New()
)

// ProfileInput carries the editable profile fields shared by registration and
// profile updates. File references that are absent keep their stored value.
type ProfileInput struct {
	FirstName    string
	LastName     string
	Email        string
	PhoneNumber  *string
	BirthDate    *string
	AgeGroup     *string
	Address      *string
	Bio          *string
	Website      *string
	ProfileImage types.NullableString
	JobDocument  types.NullableString
}

// Profile is a validated ProfileInput ready to be written to a user.
type Profile struct {
	FirstName    string
	LastName     string
	Email        string
	PhoneNumber  *string
	BirthDate    *time.Time
	AgeGroup     *enums.AgeGroup
	Address      *string
	Bio          *string
	Website      *string
	ProfileImage types.NullableString
	JobDocument  types.NullableString
}

// Apply copies the profile onto u.
func (p Profile) Apply(u *models.User) {
	u.FirstName = p.FirstName
	u.LastName = p.LastName
	u.Email = p.Email
	u.PhoneNumber = p.PhoneNumber
	u.BirthDate = p.BirthDate
	u.AgeGroup = p.AgeGroup
	u.Address = p.Address
	u.Bio = p.Bio
	u.Website = p.Website
	u.ProfileImage = p.ProfileImage.Apply(u.ProfileImage)
	u.JobDocument = p.JobDocument.Apply(u.JobDocument)
}

// NormalizeProfile validates in and derives the age group from the birth date
// when none was chosen. now is the instant the birth date is checked against.
func NormalizeProfile(in ProfileInput, now time.Time, media config.MediaConfig) (Profile, error) {
	details := map[string]string{}
	out := Profile{
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		Email:        strings.TrimSpace(in.Email),
		Address:      optional(in.Address),
		Bio:          optional(in.Bio),
		Website:      optional(in.Website),
		ProfileImage: in.ProfileImage,
		JobDocument:  in.JobDocument,
	}

	if out.FirstName == "" {
		details["first_name"] = "is required"
	} else if utf8.RuneCountInString(out.FirstName) > maxNameLength {
		details["first_name"] = "is too long"
	}
	if out.LastName == "" {
		details["last_name"] = "is required"
	} else if utf8.RuneCountInString(out.LastName) > maxNameLength {
		details["last_name"] = "is too long"
	}
	if out.Email == "" {
		details["email"] = "is required"
	} else if fieldValidator.Var(out.Email, "email") != nil {
		details["email"] = "must be a valid email"
	}

	if phone := optional(in.PhoneNumber); phone != nil {
		normalized := jalali.NormalizeDigits(*phone)
		if !phonePattern.MatchString(normalized) {
			details["phone_number"] = "must start with 09 and contain 11 digits"
		} else {
			out.PhoneNumber = &normalized
		}
	}

	if raw := optional(in.BirthDate); raw != nil {
		birth, err := jalali.ParseDate(*raw)
		switch {
		case err != nil:
			details["birth_date"] = "must be a valid Jalali date (YYYY/MM/DD)"
		case birth.After(now):
			details["birth_date"] = "cannot be in the future"
		default:
			out.BirthDate = &birth
		}
	}

	if raw := optional(in.AgeGroup); raw != nil {
		group, err := enums.ParseAgeGroup(*raw)
		if err != nil {
			details["age_group"] = "is invalid"
		} else {
			out.AgeGroup = &group
		}
	} else if out.BirthDate != nil {
		group := enums.AgeGroupFor(*out.BirthDate, now)
		out.AgeGroup = &group
	}

	if out.Bio != nil && utf8.RuneCountInString(*out.Bio) > maxBioLength {
		details["bio"] = "must be at most 500 characters"
	}
	if out.Address != nil && utf8.RuneCountInString(*out.Address) > maxAddressLength {
		details["address"] = "is too long"
	}
	if out.Website != nil && fieldValidator.Var(*out.Website, "url") != nil {
		details["website"] = "must be a valid URL"
	}

	if ref := in.ProfileImage.Value; ref != nil && !HasAllowedExtension(*ref, media.ProfileImageExtensions) {
		details["profile_image"] = "has an unsupported file type"
	}
	if ref := in.JobDocument.Value; ref != nil && !HasAllowedExtension(*ref, media.JobDocumentExtensions) {
		details["job_document"] = "has an unsupported file type"
	}

	if len(details) > 0 {
		return Profile{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid profile").WithDetails(details)
	}
	return out, nil
}

// ValidNationalCode reports whether code (after digit normalization) is ten digits.
func ValidNationalCode(code string) bool {
	return nationalCodePattern.MatchString(jalali.NormalizeDigits(strings.TrimSpace(code)))
}

// ValidPhoneNumber reports whether phone is an Iranian mobile number.
func ValidPhoneNumber(phone string) bool {
	return phonePattern.MatchString(jalali.NormalizeDigits(strings.TrimSpace(phone)))
}

// HasAllowedExtension checks ref's extension against allowed, case-insensitively.
func HasAllowedExtension(ref string, allowed []string) bool {
	ext := strings.TrimPrefix(strings.ToLower(path.Ext(strings.TrimSpace(ref))), ".")
	if ext == "" {
		return false
	}
	for _, candidate := range allowed {
		if strings.EqualFold(strings.TrimPrefix(strings.TrimSpace(candidate), "."), ext) {
			return true
		}
	}
	return false
}

func optional(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
