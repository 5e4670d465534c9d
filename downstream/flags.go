package downstream

// Flag selects which downstream consumers receive a given message,
// the same bitmask-filter idea rbc/constants.go used for its RBC
// feed kinds, narrowed down to the four event kinds this engine
// fans out.
const (
	FlagPose        uint32 = 1
	FlagInstruction uint32 = 2
	FlagOffRoute    uint32 = 4
	FlagReroute     uint32 = 8
)
