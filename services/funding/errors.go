package funding

import "bondfund/pkg/errutil"

// Reason codes for campaign failures. Every rejected call leaves the ledger
// untouched; these let callers tell apart failures that share an HTTP status.
const (
	ReasonUnauthorized         = "UNAUTHORIZED"
	ReasonCampaignClosed       = "CAMPAIGN_CLOSED"
	ReasonCampaignStillOpen    = "CAMPAIGN_STILL_OPEN"
	ReasonAlreadyPriced        = "ALREADY_PRICED"
	ReasonDistributionNotReady = "DISTRIBUTION_NOT_READY"
	ReasonBelowMinimum         = "BELOW_MINIMUM"
	ReasonExceedsTarget        = "EXCEEDS_TARGET"
	ReasonInvalidPrice         = "INVALID_PRICE"
	ReasonInvalidAmount        = "INVALID_AMOUNT"
	ReasonTransferFailed       = "TRANSFER_FAILED"
	ReasonNothingToClaim       = "NOTHING_TO_CLAIM"
	ReasonCampaignNotFound     = "CAMPAIGN_NOT_FOUND"
)

func errUnauthorized() error {
	return errutil.Forbidden("caller lacks the required role", errutil.WithReason(ReasonUnauthorized))
}

func errCampaignClosed() error {
	return errutil.UnprocessableEntity("campaign is closed to new investment", errutil.WithReason(ReasonCampaignClosed))
}

func errCampaignStillOpen() error {
	return errutil.UnprocessableEntity("campaign is still open to investment", errutil.WithReason(ReasonCampaignStillOpen))
}

func errAlreadyPriced() error {
	return errutil.Conflict("bond price has already been set", errutil.WithReason(ReasonAlreadyPriced))
}

func errDistributionNotReady() error {
	return errutil.UnprocessableEntity("bond price has not been set", errutil.WithReason(ReasonDistributionNotReady))
}

func errBelowMinimum() error {
	return errutil.BadRequest("first contribution is below the campaign minimum", errutil.WithReason(ReasonBelowMinimum))
}

func errExceedsTarget() error {
	return errutil.BadRequest("contribution would exceed the campaign target", errutil.WithReason(ReasonExceedsTarget))
}

func errInvalidPrice() error {
	return errutil.BadRequest("price must be a positive whole base-unit amount", errutil.WithReason(ReasonInvalidPrice))
}

func errInvalidAmount() error {
	return errutil.BadRequest("amount must be a positive whole base-unit amount", errutil.WithReason(ReasonInvalidAmount))
}

func errTransferFailed(cause error) error {
	return errutil.UnprocessableEntity("stablecoin transfer failed",
		errutil.WithReason(ReasonTransferFailed), errutil.WithErr(cause))
}

func errNothingToClaim() error {
	return errutil.Conflict("no claimable bond tokens", errutil.WithReason(ReasonNothingToClaim))
}

func errCampaignNotFound() error {
	return errutil.NotFound("campaign is not configured", errutil.WithReason(ReasonCampaignNotFound))
}
