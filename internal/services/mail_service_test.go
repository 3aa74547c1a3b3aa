package services

import (
	"testing"

	"propagentic/internal/models"
	"propagentic/pkg/errors"
	"propagentic/pkg/queue"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetDeliveryStatus(t *testing.T) {
	db := setupTestDB(t)
	inviteSvc := NewInviteService()
	svc := NewMailService()

	landlord := createLandlord(t, db, "landlord1")
	other := createLandlord(t, db, "landlord2")
	property := createProperty(t, db, landlord.ID, "阳光公寓")

	invite, err := inviteSvc.SendInvite(landlord.ID, &SendInviteRequest{
		TenantEmail: "tenant1@test.com",
		PropertyID:  property.ID,
	})
	require.NoError(t, err)
	require.NotEmpty(t, invite.MailDocID)

	mailLog, err := svc.GetDeliveryStatus(invite.MailDocID, landlord.ID)
	require.NoError(t, err)
	assert.Equal(t, models.MailStatusQueued, mailLog.Status)
	assert.Equal(t, invite.ID, mailLog.InviteID)

	// 只有签发邀请的房东能查
	_, err = svc.GetDeliveryStatus(invite.MailDocID, other.ID)
	require.Error(t, err)
	assert.Equal(t, errors.CodeForbidden, errors.CodeOf(err))

	_, err = svc.GetDeliveryStatus("no-such-doc", landlord.ID)
	require.Error(t, err)
	assert.Equal(t, errors.CodeNotFound, errors.CodeOf(err))
}

func TestDeliverMarksSent(t *testing.T) {
	db := setupTestDB(t)
	inviteSvc := NewInviteService()
	dispatcher := NewMailDispatcher()

	landlord := createLandlord(t, db, "landlord1")
	property := createProperty(t, db, landlord.ID, "阳光公寓")

	invite, err := inviteSvc.SendInvite(landlord.ID, &SendInviteRequest{
		TenantEmail: "tenant1@test.com",
		PropertyID:  property.ID,
	})
	require.NoError(t, err)

	dispatcher.deliver(&queue.MailMessage{
		MailDocID: invite.MailDocID,
		InviteID:  invite.ID,
		To:        invite.TenantEmail,
		Template:  MailTemplateInvite,
		Params: map[string]string{
			"landlord_name": invite.LandlordName,
			"property_name": invite.PropertyName,
		},
	})

	var mailLog models.MailLog
	require.NoError(t, db.Where("mail_doc_id = ?", invite.MailDocID).First(&mailLog).Error)
	assert.Equal(t, models.MailStatusSent, mailLog.Status)
	require.NotNil(t, mailLog.SentAt)
}

func TestDeliverMarksFailedOnBadRecipient(t *testing.T) {
	db := setupTestDB(t)
	dispatcher := NewMailDispatcher()

	// 投递记录先行落库，收件地址损坏
	mailLog := &models.MailLog{
		MailDocID: "doc-bad-1",
		InviteID:  1,
		Recipient: "broken-address",
		Template:  MailTemplateInvite,
		Status:    models.MailStatusQueued,
	}
	require.NoError(t, db.Create(mailLog).Error)

	dispatcher.deliver(&queue.MailMessage{
		MailDocID: "doc-bad-1",
		InviteID:  1,
		To:        "broken-address",
		Template:  MailTemplateInvite,
	})

	var updated models.MailLog
	require.NoError(t, db.Where("mail_doc_id = ?", "doc-bad-1").First(&updated).Error)
	assert.Equal(t, models.MailStatusFailed, updated.Status)
	assert.NotEmpty(t, updated.ErrorMessage)
}
