package enums

import "fmt"

// ListingKind separates physical goods from offered services.
type ListingKind string

const (
	ListingKindGood    ListingKind = "good"
	ListingKindService ListingKind = "service"
)

var validListingKinds = []ListingKind{
	ListingKindGood,
	ListingKindService,
}

// String implements fmt.Stringer.
func (k ListingKind) String() string {
	return string(k)
}

// IsValid reports whether the value is a known ListingKind.
func (k ListingKind) IsValid() bool {
	for _, candidate := range validListingKinds {
		if candidate == k {
			return true
		}
	}
	return false
}

// ParseListingKind converts raw input into a ListingKind.
func ParseListingKind(value string) (ListingKind, error) {
	for _, candidate := range validListingKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid listing kind %q", value)
}

// PublishState is the listing lifecycle state. Exactly one holds at any time.
type PublishState string

const (
	PublishStateDraft              PublishState = "draft"
	PublishStateModeration         PublishState = "moderation"
	PublishStateModerationDisallow PublishState = "moderation_disallow"
	PublishStatePublished          PublishState = "published"
	PublishStateDeleted            PublishState = "deleted"
	PublishStateSold               PublishState = "sold"
)

var validPublishStates = []PublishState{
	PublishStateDraft,
	PublishStateModeration,
	PublishStateModerationDisallow,
	PublishStatePublished,
	PublishStateDeleted,
	PublishStateSold,
}

// String implements fmt.Stringer.
func (s PublishState) String() string {
	return string(s)
}

// IsValid reports whether the value is a known PublishState.
func (s PublishState) IsValid() bool {
	for _, candidate := range validPublishStates {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParsePublishState converts raw input into a PublishState.
func ParsePublishState(value string) (PublishState, error) {
	for _, candidate := range validPublishStates {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid publish state %q", value)
}
