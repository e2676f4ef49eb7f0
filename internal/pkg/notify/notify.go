package notify

import (
	"context"

	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/pressbid/PressBid/app/models"
	"github.com/pressbid/PressBid/internal/pkg/mail"
)

// Intent is a notification queued during a state transition and
// dispatched only after the authoritative write commits. Dispatch is
// best-effort: a failed notification never rolls back a sale.
type Intent struct {
	UserID      uint
	Type        string
	Content     string
	ReferenceID uint

	// EmailSubject/EmailBody trigger a best-effort email when set.
	EmailSubject string
	EmailBody    string

	// Dedupe skips the insert when a notification of the same
	// type+reference already exists for the user. Webhook-driven
	// notifications set this since providers redeliver.
	Dedupe bool
}

// Dispatcher delivers queued intents after a transaction commits.
type Dispatcher interface {
	Dispatch(ctx context.Context, intents []Intent)
}

type gormDispatcher struct {
	db *gorm.DB
}

// NewDispatcher creates a dispatcher that persists notification rows
// and sends emails through the SMTP mailer.
func NewDispatcher(db *gorm.DB) Dispatcher {
	return &gormDispatcher{db: db}
}

func (d *gormDispatcher) Dispatch(ctx context.Context, intents []Intent) {
	_ = ctx
	for _, in := range intents {
		if in.UserID == 0 {
			continue
		}

		if in.Dedupe {
			exists, err := models.NotificationExists(d.db, in.UserID, in.Type, in.ReferenceID)
			if err != nil {
				log.Errorf("notification dedupe check failed for user %d type %s: %v", in.UserID, in.Type, err)
				continue
			}
			if exists {
				continue
			}
		}

		if err := models.CreateNotification(d.db, in.UserID, in.Type, in.Content, in.ReferenceID); err != nil {
			log.Errorf("failed to persist notification for user %d type %s: %v", in.UserID, in.Type, err)
			// Fall through: email is still worth attempting.
		}

		if in.EmailSubject == "" {
			continue
		}
		var user models.User
		if err := d.db.Select("email").First(&user, in.UserID).Error; err != nil {
			log.Errorf("failed to load email for user %d: %v", in.UserID, err)
			continue
		}
		if err := mail.SendMail(user.Email, in.EmailSubject, in.EmailBody); err != nil {
			log.Errorf("failed to send %s email to user %d: %v", in.Type, in.UserID, err)
		}
	}
}
