package listings

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/swapmarket/backend/internal/notify"
	"github.com/swapmarket/backend/pkg/db/models"
	"github.com/swapmarket/backend/pkg/enums"
	pkgerrors "github.com/swapmarket/backend/pkg/errors"
	"github.com/swapmarket/backend/pkg/logger"
	"github.com/swapmarket/backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type imageReconciler interface {
	Reconcile(ctx context.Context, tx *gorm.DB, listing *models.Listing, ownerID uuid.UUID, requestedIDs []uuid.UUID) (bool, []string, error)
}

type transitionDispatcher interface {
	Dispatch(ctx context.Context, t notify.Transition)
}

type blobRemover interface {
	Remove(ctx context.Context, key string) error
}

// Service exposes the listing publication workflow.
type Service interface {
	Create(ctx context.Context, ownerID uuid.UUID, action Action, input ListingInput) (*ListingDTO, error)
	Update(ctx context.Context, callerID, listingID uuid.UUID, action Action, input ListingInput) (*ListingDTO, error)
	Get(ctx context.Context, callerID, listingID uuid.UUID) (*ListingDTO, error)
	List(ctx context.Context, ownerID uuid.UUID, limit int, cursor string) (*ListResult, error)
	ModerationQueue(ctx context.Context, actorRole enums.UserRole, limit int, cursor string) (*ListResult, error)
	Decide(ctx context.Context, actorID uuid.UUID, actorRole enums.UserRole, listingID uuid.UUID, input DecisionInput) (*ListingDTO, error)
}

type service struct {
	repo              Repository
	tx                txRunner
	reconciler        imageReconciler
	dispatcher        transitionDispatcher
	blobs             blobRemover
	urls              ImageURLBuilder
	logg              *logger.Logger
	moderationEnabled bool
}

// NewService wires the listing workflow dependencies.
func NewService(repo Repository, tx txRunner, reconciler imageReconciler, dispatcher transitionDispatcher, blobs blobRemover, urls ImageURLBuilder, logg *logger.Logger, moderationEnabled bool) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("listing repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if reconciler == nil {
		return nil, fmt.Errorf("image reconciler required")
	}
	if dispatcher == nil {
		return nil, fmt.Errorf("transition dispatcher required")
	}
	if blobs == nil {
		return nil, fmt.Errorf("blob remover required")
	}
	if urls == nil {
		return nil, fmt.Errorf("image url builder required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:              repo,
		tx:                tx,
		reconciler:        reconciler,
		dispatcher:        dispatcher,
		blobs:             blobs,
		urls:              urls,
		logg:              logg,
		moderationEnabled: moderationEnabled,
	}, nil
}

// Decision is the moderator verdict on a listing awaiting review.
type Decision string

const (
	DecisionApprove Decision = "approve"
	DecisionReject  Decision = "reject"
)

// DecisionInput carries the moderator verdict payload.
type DecisionInput struct {
	Decision Decision
	Reason   string
}

// ParseDecision validates the verdict value.
func ParseDecision(raw string) (Decision, error) {
	switch Decision(strings.ToLower(strings.TrimSpace(raw))) {
	case DecisionApprove:
		return DecisionApprove, nil
	case DecisionReject:
		return DecisionReject, nil
	default:
		return "", pkgerrors.New(pkgerrors.CodeValidation, "invalid decision").
			WithDetails(map[string]string{"decision": "decision should be approve/reject"})
	}
}

func (s *service) Create(ctx context.Context, ownerID uuid.UUID, action Action, input ListingInput) (*ListingDTO, error) {
	if ownerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user identity missing")
	}
	if err := ValidateInput(input); err != nil {
		return nil, err
	}

	state := ResolveCreateState(action, s.moderationEnabled)

	var created *models.Listing
	if err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		listing := &models.Listing{
			UserID:        ownerID,
			CategoryID:    input.CategoryID,
			Kind:          input.Kind,
			State:         state,
			Name:          strings.TrimSpace(input.Name),
			Description:   input.Description,
			Contacts:      input.Contacts,
			Condition:     input.Condition,
			PriceCurrency: input.PriceCurrency,
			PriceGifts:    input.PriceGifts,
			ReadyToChange: input.ReadyToChange,
		}
		row, err := txRepo.Create(ctx, listing)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert listing")
		}
		created = row

		if len(input.ImageIDs) > 0 {
			if _, _, err := s.reconciler.Reconcile(ctx, tx, created, ownerID, input.ImageIDs); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create listing")
	}

	s.dispatcher.Dispatch(ctx, notify.Transition{Listing: created, New: state})

	return s.reload(ctx, created.ID, ownerID)
}

func (s *service) Update(ctx context.Context, callerID, listingID uuid.UUID, action Action, input ListingInput) (*ListingDTO, error) {
	if callerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user identity missing")
	}
	if err := ValidateInput(input); err != nil {
		return nil, err
	}
	input.Name = strings.TrimSpace(input.Name)

	listing, err := s.repo.FindByID(ctx, listingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "listing not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load listing")
	}
	if listing.UserID != callerID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "listing not found")
	}

	oldState := listing.State
	var newState enums.PublishState
	var removedKeys []string

	if err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		diffs := FieldChanges(listing, input)
		applyInput(listing, input)

		imagesChanged, removed, err := s.reconciler.Reconcile(ctx, tx, listing, callerID, input.ImageIDs)
		if err != nil {
			return err
		}
		removedKeys = removed

		changed := len(diffs) > 0 || imagesChanged
		newState = ResolveUpdateState(action, oldState, changed, s.moderationEnabled)
		listing.State = newState

		if err := txRepo.Save(ctx, listing); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update listing")
		}
		return nil
	}); err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update listing")
	}

	s.removeBlobs(ctx, removedKeys)
	s.dispatcher.Dispatch(ctx, notify.Transition{Listing: listing, Old: oldState, New: newState})

	return s.reload(ctx, listing.ID, callerID)
}

func (s *service) Get(ctx context.Context, callerID, listingID uuid.UUID) (*ListingDTO, error) {
	listing, err := s.repo.FindVisible(ctx, listingID, callerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "listing not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load listing")
	}
	return NewListingDTO(listing, callerID, s.urls), nil
}

func (s *service) List(ctx context.Context, ownerID uuid.UUID, limit int, cursor string) (*ListResult, error) {
	if ownerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user identity missing")
	}

	parsed, err := pagination.ParseCursor(cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	rows, next, err := s.repo.ListOwned(ctx, ownerID, limit, parsed)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list listings")
	}
	return s.buildListResult(rows, next, ownerID), nil
}

func (s *service) ModerationQueue(ctx context.Context, actorRole enums.UserRole, limit int, cursor string) (*ListResult, error) {
	if !actorRole.CanModerate() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "moderator role required")
	}

	parsed, err := pagination.ParseCursor(cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	rows, next, err := s.repo.ListByState(ctx, enums.PublishStateModeration, limit, parsed)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list moderation queue")
	}
	return s.buildListResult(rows, next, uuid.Nil), nil
}

func (s *service) Decide(ctx context.Context, actorID uuid.UUID, actorRole enums.UserRole, listingID uuid.UUID, input DecisionInput) (*ListingDTO, error) {
	if !actorRole.CanModerate() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "moderator role required")
	}

	reason := strings.TrimSpace(input.Reason)
	if input.Decision == DecisionReject && reason == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid decision payload").
			WithDetails(map[string]string{"reason": "reason is required to reject"})
	}

	listing, err := s.repo.FindByID(ctx, listingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "listing not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load listing")
	}
	if listing.State != enums.PublishStateModeration {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "listing is not awaiting moderation").
			WithDetails(map[string]string{"state": listing.State.String()})
	}

	target := enums.PublishStatePublished
	if input.Decision == DecisionReject {
		target = enums.PublishStateModerationDisallow
	} else {
		reason = ""
	}

	ok, err := s.repo.UpdateStateFrom(ctx, listing.ID, enums.PublishStateModeration, target, reason)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update listing state")
	}
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "listing is not awaiting moderation")
	}

	listing.State = target
	listing.ModerationDisallowReason = reason

	s.dispatcher.Dispatch(ctx, notify.Transition{
		Listing: listing,
		Old:     enums.PublishStateModeration,
		New:     target,
		Reason:  reason,
	})

	return NewListingDTO(listing, actorID, s.urls), nil
}

func (s *service) buildListResult(rows []models.Listing, next *pagination.Cursor, callerID uuid.UUID) *ListResult {
	items := make([]ListingDTO, 0, len(rows))
	for i := range rows {
		items = append(items, *NewListingDTO(&rows[i], callerID, s.urls))
	}
	cursor := ""
	if next != nil {
		cursor = pagination.EncodeCursor(*next)
	}
	return &ListResult{Items: items, Cursor: cursor}
}

func (s *service) reload(ctx context.Context, listingID, callerID uuid.UUID) (*ListingDTO, error) {
	listing, err := s.repo.FindByID(ctx, listingID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load listing detail")
	}
	return NewListingDTO(listing, callerID, s.urls), nil
}

// removeBlobs deletes detached blobs after the transaction committed. A
// missing object or a store hiccup never fails the save.
func (s *service) removeBlobs(ctx context.Context, keys []string) {
	for _, key := range keys {
		if err := s.blobs.Remove(ctx, key); err != nil {
			s.logg.Warn(s.logg.WithField(ctx, "storage_key", key), "detached blob removal failed")
		}
	}
}

func applyInput(listing *models.Listing, input ListingInput) {
	listing.Name = strings.TrimSpace(input.Name)
	listing.CategoryID = input.CategoryID
	listing.Kind = input.Kind
	listing.Description = input.Description
	listing.Contacts = input.Contacts
	listing.Condition = input.Condition
	listing.PriceCurrency = input.PriceCurrency
	listing.PriceGifts = input.PriceGifts
	listing.ReadyToChange = input.ReadyToChange
}
