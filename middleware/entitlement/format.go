package entitlement

import "strconv"

func formatInt(v int) string { return strconv.Itoa(v) }

func formatBool(v bool) string { return strconv.FormatBool(v) }
