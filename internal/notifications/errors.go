package notifications

import "github.com/aura-webinar/storefront/pkg/errs"

// ErrQueueUnavailable is returned when no email queue is configured.
var ErrQueueUnavailable = errs.New("email queue unavailable")
