package domain

// Path type tags address one hierarchy level each; a full_id always belongs to
// exactly one of them.
const (
	PathTypeProject   = "PROJECT"
	PathTypeFinPart   = "FIN_PART"
	PathTypeTechPart  = "TECH_PART"
	PathTypeWorkOrder = "WORK_ORDER"
)
