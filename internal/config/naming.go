package config

import (
	"strconv"
	"strings"
)

// checkpointSuffix ends every checkpoint file name derived from a prefix.
const checkpointSuffix = "-multitask.ckpt"

// defaultRunName is used when the prefix has no name component.
const defaultRunName = "default"

// nameTrim is stripped from both ends of prefix and suffix names so that
// "models/sts_" and "_sts" meet at "sts".
const nameTrim = "_-. "

// FormatLR renders a learning rate the way it appears in artifact names
// (shortest representation, e.g. 1e-05).
func FormatLR(lr float64) string {
	return strconv.FormatFloat(lr, 'g', -1, 64)
}

// CheckpointPath returns where the run saves its best model. A set ModelPath
// is reused so that a resumed run overwrites the model it started from.
func (c RunConfig) CheckpointPath() string {
	if c.ModelPath != "" {
		return c.ModelPath
	}
	return c.FilePrefix + string(c.FineTuneMode) + "-" + strconv.Itoa(c.Epochs) + "-" + FormatLR(c.LR) + checkpointSuffix
}

// RunName is the run identifier derived from the file prefix.
func (c RunConfig) RunName() string { return RunNameFromPrefix(c.FilePrefix) }

// RunNameFromPrefix maps a file prefix to a run name: the last path element
// with separators trimmed, or "default" when nothing remains.
func RunNameFromPrefix(prefix string) string {
	base := prefix[strings.LastIndexAny(prefix, `/\`)+1:]
	base = strings.Trim(base, nameTrim)
	if base == "" {
		return defaultRunName
	}
	return base
}

// RunNameFromSuffix maps a submission file suffix to a run name. An empty
// result means "latest run".
func RunNameFromSuffix(suffix string) string {
	return strings.Trim(suffix, nameTrim)
}
