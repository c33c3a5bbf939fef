package ember

import "github.com/emberplus-go/goember/ber"

// Application tag numbers identifying each Ember+ structure, per the
// table this client and its peers agree on. Context tag numbers labeling
// fields within a structure are assigned locally to each type's
// Encode/Decode pair below.
const (
	tagParameter          = 1
	tagCommand            = 2
	tagNode               = 3
	tagElementCollection  = 4
	tagStreamEntry        = 5
	tagStreamCollection   = 6
	tagQualifiedParameter = 7
	tagQualifiedNode      = 8
	tagMatrix             = 10
	tagMatrixConnection   = 11
	tagQualifiedMatrix    = 12
	tagFunction           = 13
	tagInvocationRequest  = 14
	tagInvocationResult   = 15
	tagQualifiedFunction  = 16
	tagStreamDescription  = 18
)

func appTag(n uint32) ber.Tag { return ber.Application(n) }
func ctx(n uint32) ber.Tag    { return ber.ContextConstructed(n) }
