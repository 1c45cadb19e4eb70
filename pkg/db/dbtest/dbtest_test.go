package dbtest

import (
	"strings"
	"testing"
	"time"

	"github.com/angelmondragon/accounts-backend/pkg/db/models"
	"github.com/angelmondragon/accounts-backend/pkg/enums"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func seedUser(t *testing.T, conn *gorm.DB) *models.User {
	t.Helper()
	u := &models.User{
		Username:     "owner",
		Email:        "owner@example.com",
		PasswordHash: "hash",
		FirstName:    "owner",
		LastName:     "Tester",
		NationalCode: "0000000001",
		UserType:     enums.UserTypeNormal,
		IsActive:     true,
	}
	require.NoError(t, conn.Create(u).Error)
	return u
}

func TestContactRepliedRequiresResponse(t *testing.T) {
	conn := Open(t)
	user := seedUser(t, conn)

	contact := &models.ContactMessage{UserID: user.ID, Subject: "s", Message: "m", Status: enums.ContactStatusPending}
	require.NoError(t, conn.Create(contact).Error)

	err := conn.Model(contact).Update("status", enums.ContactStatusReplied).Error
	assert.Error(t, err, "replied without a response")

	response := "پاسخ"
	err = conn.Model(contact).Update("admin_response", response).Error
	assert.Error(t, err, "response on a pending contact")

	now := time.Now().UTC()
	err = conn.Model(contact).Updates(map[string]any{
		"status":         enums.ContactStatusReplied,
		"admin_response": response,
	}).Error
	assert.Error(t, err, "replied without a timestamp")

	err = conn.Model(contact).Updates(map[string]any{
		"status":         enums.ContactStatusReplied,
		"admin_response": response,
		"responded_at":   now,
	}).Error
	require.NoError(t, err)

	err = conn.Model(contact).Update("status", "archived").Error
	assert.Error(t, err, "unknown status")
}

func TestSubjectLengthEnforced(t *testing.T) {
	conn := Open(t)
	user := seedUser(t, conn)

	fits := strings.Repeat("س", 200)
	require.NoError(t, conn.Create(&models.ContactMessage{UserID: user.ID, Subject: fits, Message: "m", Status: enums.ContactStatusPending}).Error)
	require.NoError(t, conn.Create(&models.UserMessage{UserID: user.ID, Kind: enums.MessageKindPrivate, Subject: fits, Content: "c"}).Error)

	long := fits + "س"
	assert.Error(t, conn.Create(&models.ContactMessage{UserID: user.ID, Subject: long, Message: "m", Status: enums.ContactStatusPending}).Error)
	assert.Error(t, conn.Create(&models.UserMessage{UserID: user.ID, Kind: enums.MessageKindPrivate, Subject: long, Content: "c"}).Error)
}
