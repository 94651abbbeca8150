package types

import (
	"fmt"

	"github.com/oklog/ulid/v2"
)

const (
	UUID_PREFIX_INVOICE            = "inv"
	UUID_PREFIX_INVOICE_LINE_ITEM  = "inv_line"
	UUID_PREFIX_ESTIMATE           = "est"
	UUID_PREFIX_ESTIMATE_LINE_ITEM = "est_line"
	UUID_PREFIX_TEMPLATE           = "rtpl"
	UUID_PREFIX_TEMPLATE_LINE_ITEM = "rtpl_line"
	UUID_PREFIX_ACCOUNT            = "acct"
	UUID_PREFIX_PLAN               = "plan"
	UUID_PREFIX_DELIVERY_JOB       = "dlv"
	UUID_PREFIX_REQUEST            = "req"
)

// GenerateUUID returns a k-sortable unique identifier
func GenerateUUID() string {
	return ulid.Make().String()
}

// GenerateUUIDWithPrefix returns a k-sortable unique identifier
// with a prefix ex inv_0ujsswThIGTUYm2K8FjOOfXtY1K
func GenerateUUIDWithPrefix(prefix string) string {
	if prefix == "" {
		return GenerateUUID()
	}
	return fmt.Sprintf("%s_%s", prefix, GenerateUUID())
}
