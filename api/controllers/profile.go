package controllers

import (
	"net/http"

	"github.com/angelmondragon/accounts-backend/api/responses"
	"github.com/angelmondragon/accounts-backend/api/validators"
	"github.com/angelmondragon/accounts-backend/internal/users"
	pkgerrors "github.com/angelmondragon/accounts-backend/pkg/errors"
	"github.com/angelmondragon/accounts-backend/pkg/logger"
	"github.com/angelmondragon/accounts-backend/pkg/types"
)

// profileUpdateRequest carries the editable profile fields. Absent file
// references keep the stored value; an explicit null clears it.
type profileUpdateRequest struct {
	FirstName    string               `json:"first_name" validate:"required,max=150"`
	LastName     string               `json:"last_name" validate:"required,max=150"`
	Email        string               `json:"email" validate:"required,email"`
	PhoneNumber  *string              `json:"phone_number,omitempty" validate:"omitempty,ir_mobile"`
	BirthDate    *string              `json:"birth_date,omitempty" validate:"omitempty,jalali_date"`
	AgeGroup     *string              `json:"age_group,omitempty" validate:"omitempty,oneof=under_7 7_15 15_25 over_25"`
	Address      *string              `json:"address,omitempty"`
	Bio          *string              `json:"bio,omitempty" validate:"omitempty,max=500"`
	Website      *string              `json:"website,omitempty" validate:"omitempty,url"`
	ProfileImage types.NullableString `json:"profile_image"`
	JobDocument  types.NullableString `json:"job_document"`
}

func (p profileUpdateRequest) toInput() users.ProfileInput {
	return users.ProfileInput{
		FirstName:    p.FirstName,
		LastName:     p.LastName,
		Email:        p.Email,
		PhoneNumber:  p.PhoneNumber,
		BirthDate:    p.BirthDate,
		AgeGroup:     p.AgeGroup,
		Address:      p.Address,
		Bio:          p.Bio,
		Website:      p.Website,
		ProfileImage: p.ProfileImage,
		JobDocument:  p.JobDocument,
	}
}

// ProfileGet returns the authenticated user's profile.
func ProfileGet(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "users service unavailable"))
			return
		}

		userID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		profile, err := svc.Profile(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, profile)
	}
}

// ProfileUpdate applies profile edits for the authenticated user.
func ProfileUpdate(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "users service unavailable"))
			return
		}

		userID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body profileUpdateRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		profile, err := svc.UpdateProfile(r.Context(), userID, body.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, profile)
	}
}
