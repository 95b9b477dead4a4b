package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/swapmarket/backend/pkg/db/models"
	"github.com/swapmarket/backend/pkg/enums"
	"github.com/swapmarket/backend/pkg/logger"
)

// Transition describes one committed publish-state change.
type Transition struct {
	Listing *models.Listing
	Old     enums.PublishState
	New     enums.PublishState
	Reason  string
}

// Notifier delivers one message to an external channel.
type Notifier interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
}

type userReader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	ListModerators(ctx context.Context) ([]models.User, error)
}

type categoryReader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.ListingCategory, error)
}

type inAppWriter interface {
	Create(ctx context.Context, notification *models.Notification) error
}

// Dispatcher routes committed listing transitions to moderators or the owner.
// Every delivery is best-effort: failures are logged, never returned.
type Dispatcher struct {
	users         userReader
	categories    categoryReader
	inApp         inAppWriter
	notifier      Notifier
	logg          *logger.Logger
	reviewURLBase string
}

// NewDispatcher wires the dispatch dependencies.
func NewDispatcher(users userReader, categories categoryReader, inApp inAppWriter, notifier Notifier, logg *logger.Logger, reviewURLBase string) (*Dispatcher, error) {
	if users == nil {
		return nil, fmt.Errorf("user reader required")
	}
	if categories == nil {
		return nil, fmt.Errorf("category reader required")
	}
	if inApp == nil {
		return nil, fmt.Errorf("in-app writer required")
	}
	if notifier == nil {
		return nil, fmt.Errorf("notifier required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Dispatcher{
		users:         users,
		categories:    categories,
		inApp:         inApp,
		notifier:      notifier,
		logg:          logg,
		reviewURLBase: strings.TrimRight(reviewURLBase, "/"),
	}, nil
}

// Dispatch applies the notification policy for one transition. At most one
// recipient group is notified per call.
func (d *Dispatcher) Dispatch(ctx context.Context, t Transition) {
	if t.Listing == nil {
		return
	}
	ctx = d.logg.WithListingID(ctx, t.Listing.ID.String())

	switch {
	case t.New == enums.PublishStateModeration:
		d.notifyModerators(ctx, t)
	case t.New == enums.PublishStatePublished && t.Old != enums.PublishStatePublished:
		d.notifyOwner(ctx, t.Listing, enums.NotificationTypeListingPublished,
			"Listing published",
			fmt.Sprintf("Your listing %q is now visible to everyone.", t.Listing.Name),
			nil)
	case t.New == enums.PublishStateModerationDisallow:
		reason := t.Reason
		if reason == "" {
			reason = t.Listing.ModerationDisallowReason
		}
		d.notifyOwner(ctx, t.Listing, enums.NotificationTypeListingRejected,
			"Listing rejected",
			fmt.Sprintf("Your listing %q was rejected: %s", t.Listing.Name, reason),
			nil)
	}
}

func (d *Dispatcher) notifyModerators(ctx context.Context, t Transition) {
	moderators, err := d.users.ListModerators(ctx)
	if err != nil {
		d.logg.Error(ctx, "loading moderators for dispatch", err)
		return
	}
	if len(moderators) == 0 {
		d.logg.Warn(ctx, "no moderators to notify")
		return
	}

	link := d.reviewLink(t.Listing.ID)
	message := d.moderationMessage(ctx, t.Listing, link)

	var errs error
	for i := range moderators {
		moderator := moderators[i]
		errs = multierr.Append(errs, d.deliver(ctx, &moderator, enums.NotificationTypeListingModeration,
			"Listing pending review", message, &link))
	}
	if errs != nil {
		d.logg.Error(ctx, "moderator notification broadcast partially failed", errs)
	}
}

func (d *Dispatcher) notifyOwner(ctx context.Context, listing *models.Listing, typ enums.NotificationType, title, message string, link *string) {
	owner, err := d.users.FindByID(ctx, listing.UserID)
	if err != nil {
		d.logg.Error(ctx, "loading listing owner for dispatch", err)
		return
	}
	if err := d.deliver(ctx, owner, typ, title, message, link); err != nil {
		d.logg.Error(ctx, "owner notification failed", err)
	}
}

// deliver writes the in-app row and forwards to the external channel. Either
// half can fail independently; both failures are reported to the caller for
// logging only.
func (d *Dispatcher) deliver(ctx context.Context, user *models.User, typ enums.NotificationType, title, message string, link *string) error {
	var errs error

	row := &models.Notification{
		UserID:  user.ID,
		Type:    typ,
		Title:   title,
		Message: message,
		Link:    link,
	}
	if err := d.inApp.Create(ctx, row); err != nil {
		errs = multierr.Append(errs, fmt.Errorf("in-app notification for %s: %w", user.ID, err))
	}

	if user.TgChatID != 0 {
		if err := d.notifier.SendMessage(ctx, user.TgChatID, title+"\n"+message); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("telegram message for %s: %w", user.ID, err))
		}
	}

	return errs
}

func (d *Dispatcher) moderationMessage(ctx context.Context, listing *models.Listing, link string) string {
	categoryPath := "uncategorized"
	if listing.CategoryID != nil {
		if path := d.categoryPath(ctx, *listing.CategoryID); path != "" {
			categoryPath = path
		}
	}
	return fmt.Sprintf("New %s awaiting review: %q (%s)\nCategory: %s\nReview: %s",
		listing.Kind, listing.Name, listing.ID, categoryPath, link)
}

// categoryPath renders the full parent chain for a category, root first,
// joined with " > ". The walk is capped so a cyclic parent reference cannot
// spin forever.
func (d *Dispatcher) categoryPath(ctx context.Context, leafID uuid.UUID) string {
	const maxDepth = 10

	names := make([]string, 0, 4)
	next := &leafID
	for depth := 0; next != nil && depth < maxDepth; depth++ {
		category, err := d.categories.FindByID(ctx, *next)
		if err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				d.logg.Warn(ctx, "loading category for moderation message failed")
			}
			break
		}
		names = append(names, category.Name)
		next = category.ParentID
	}
	if len(names) == 0 {
		return ""
	}
	for i, j := 0, len(names)-1; i < j; i, j = i+1, j-1 {
		names[i], names[j] = names[j], names[i]
	}
	return strings.Join(names, " > ")
}

func (d *Dispatcher) reviewLink(listingID uuid.UUID) string {
	return fmt.Sprintf("%s/%s", d.reviewURLBase, listingID)
}
