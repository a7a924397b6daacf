package enums

// AssignmentOutcome is the explicit result of a delivery assignment attempt.
type AssignmentOutcome string

const (
	AssignmentAssigned   AssignmentOutcome = "assigned"
	AssignmentUnassigned AssignmentOutcome = "unassigned"
)

// AssignmentReason explains an outcome.
type AssignmentReason string

const (
	AssignmentReasonClaimed            AssignmentReason = "claimed"
	AssignmentReasonAlreadyAssigned    AssignmentReason = "already_assigned"
	AssignmentReasonNoAvailablePartner AssignmentReason = "no_available_partner"
	AssignmentReasonVendorNotFound     AssignmentReason = "vendor_not_found"
	AssignmentReasonOrderNotFound      AssignmentReason = "order_not_found"
	AssignmentReasonOrderClosed        AssignmentReason = "order_closed"
	AssignmentReasonError              AssignmentReason = "assignment_error"
)
