package referrals

import "errors"

// ErrReferralNotFound indicates the referral does not exist for the org.
var ErrReferralNotFound = errors.New("referrals: referral not found")
