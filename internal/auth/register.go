package auth

import (
	"context"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/angelmondragon/accounts-backend/internal/users"
	"github.com/angelmondragon/accounts-backend/pkg/config"
	"github.com/angelmondragon/accounts-backend/pkg/db"
	"github.com/angelmondragon/accounts-backend/pkg/db/models"
	"github.com/angelmondragon/accounts-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/accounts-backend/pkg/errors"
	"github.com/angelmondragon/accounts-backend/pkg/jalali"
	"github.com/angelmondragon/accounts-backend/pkg/logger"
	"github.com/angelmondragon/accounts-backend/pkg/security"
	"github.com/angelmondragon/accounts-backend/pkg/types"
	"gorm.io/gorm"
)

const maxUsernameLength = 150

var usernamePattern = regexp.MustCompile(`^[\p{L}\p{N}_.@+-]+$`)

// RegisterRequest contains the payload required to open a new account.
type RegisterRequest struct {
	Username        string  `json:"username" validate:"required,max=150"`
	Email           string  `json:"email" validate:"required,email"`
	Password        string  `json:"password" validate:"required"`
	PasswordConfirm string  `json:"password_confirm" validate:"required"`
	FirstName       string  `json:"first_name" validate:"required,max=150"`
	LastName        string  `json:"last_name" validate:"required,max=150"`
	NationalCode    string  `json:"national_code" validate:"required,national_code"`
	PhoneNumber     *string `json:"phone_number,omitempty" validate:"omitempty,ir_mobile"`
	BirthDate       *string `json:"birth_date,omitempty" validate:"omitempty,jalali_date"`
	AgeGroup        *string `json:"age_group,omitempty" validate:"omitempty,oneof=under_7 7_15 15_25 over_25"`
	Address         *string `json:"address,omitempty"`
	Bio             *string `json:"bio,omitempty" validate:"omitempty,max=500"`
	Website         *string `json:"website,omitempty" validate:"omitempty,url"`
	ProfileImage    *string `json:"profile_image,omitempty"`
	JobDocument     *string `json:"job_document,omitempty"`
}

// RegisterService handles account creation.
type RegisterService interface {
	Register(ctx context.Context, req RegisterRequest) (*users.UserDTO, error)
}

// RegisterServiceParams packages the dependencies for the registration flow.
type RegisterServiceParams struct {
	DB             *db.Client
	PasswordConfig config.PasswordConfig
	Media          config.MediaConfig
	Presenter      users.Presenter
	Logger         *logger.Logger
	Clock          func() time.Time
}

type registerService struct {
	db          *db.Client
	passwordCfg config.PasswordConfig
	media       config.MediaConfig
	presenter   users.Presenter
	logg        *logger.Logger
	now         func() time.Time
}

// NewRegisterService builds a registration service with the provided dependencies.
func NewRegisterService(params RegisterServiceParams) (RegisterService, error) {
	if params.DB == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "database client required")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	clock := params.Clock
	if clock == nil {
		clock = time.Now
	}
	return &registerService{
		db:          params.DB,
		passwordCfg: params.PasswordConfig,
		media:       params.Media,
		presenter:   params.Presenter,
		logg:        logg,
		now:         func() time.Time { return clock().UTC() },
	}, nil
}

func (s *registerService) Register(ctx context.Context, req RegisterRequest) (*users.UserDTO, error) {
	username := strings.TrimSpace(req.Username)
	nationalCode := jalali.NormalizeDigits(strings.TrimSpace(req.NationalCode))

	details := map[string]string{}
	switch {
	case username == "":
		details["username"] = "is required"
	case utf8.RuneCountInString(username) > maxUsernameLength || !usernamePattern.MatchString(username):
		details["username"] = "may contain only letters, digits and @/./+/-/_"
	}
	if !users.ValidNationalCode(nationalCode) {
		details["national_code"] = "must be 10 digits"
	}
	if err := security.CheckPassword(req.Password, req.PasswordConfirm, username, s.passwordCfg); err != nil {
		details["password"] = err.Error()
	}

	now := s.now()
	profile, err := users.NormalizeProfile(users.ProfileInput{
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Email:        req.Email,
		PhoneNumber:  req.PhoneNumber,
		BirthDate:    req.BirthDate,
		AgeGroup:     req.AgeGroup,
		Address:      req.Address,
		Bio:          req.Bio,
		Website:      req.Website,
		ProfileImage: fileReference(req.ProfileImage),
		JobDocument:  fileReference(req.JobDocument),
	}, now, s.media)
	if err != nil {
		appErr := pkgerrors.As(err)
		if appErr == nil {
			return nil, err
		}
		if fieldErrs, ok := appErr.Details().(map[string]string); ok {
			for field, msg := range fieldErrs {
				details[field] = msg
			}
		}
	}
	if len(details) > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid registration").WithDetails(details)
	}

	passwordHash, err := security.HashPassword(req.Password, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	user := &models.User{
		Username:     username,
		PasswordHash: passwordHash,
		NationalCode: nationalCode,
		UserType:     enums.UserTypeNormal,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	profile.Apply(user)

	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		userRepo := users.NewRepository(tx)

		taken, err := userRepo.ExistsByUsername(ctx, username)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check username")
		}
		if taken {
			return pkgerrors.New(pkgerrors.CodeConflict, "username already registered")
		}
		taken, err = userRepo.ExistsByNationalCode(ctx, nationalCode)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check national code")
		}
		if taken {
			return pkgerrors.New(pkgerrors.CodeConflict, "national code already registered")
		}

		if err := userRepo.Create(ctx, user); err != nil {
			if db.IsUniqueViolation(err, "") {
				return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "account already registered")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create user")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logCtx := s.logg.WithField(ctx, "user_id", user.ID.String())
	s.logg.Info(logCtx, "user.registered")

	dto := s.presenter.User(user)
	return &dto, nil
}

func fileReference(ref *string) types.NullableString {
	if ref == nil || strings.TrimSpace(*ref) == "" {
		return types.NullableString{}
	}
	return types.Set(strings.TrimSpace(*ref))
}
