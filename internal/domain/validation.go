package domain

import "encoding/json"

// ValidationResult is the structured validity report for one pose. The
// overall verdict is derived by Pass and is never stored independently.
type ValidationResult struct {
	// PosePath identifies the checked pose.
	PosePath string

	// FileExists is false when the pose source could not be found.
	FileExists bool

	// ParsedOK is true once the source was read and parsed.
	ParsedOK bool

	// NChains is the number of chains in the first model.
	NChains int

	// AtomsPerChainOK is true when every chain meets the minimum atom count.
	AtomsPerChainOK bool

	// TwoChainInterfaceOK is true when the first model holds two or more
	// chains.
	TwoChainInterfaceOK bool
}

// Pass reports whether the pose is physically plausible enough to score.
func (v ValidationResult) Pass() bool {
	return v.ParsedOK && v.TwoChainInterfaceOK && v.AtomsPerChainOK
}

type validationJSON struct {
	PosePath            string `json:"pose_path"`
	FileExists          bool   `json:"file_exists"`
	ParsedOK            bool   `json:"parsed_ok"`
	NChains             int    `json:"n_chains"`
	AtomsPerChainOK     bool   `json:"atoms_per_chain_ok"`
	TwoChainInterfaceOK bool   `json:"two_chain_interface_ok"`
	Pass                bool   `json:"pass"`
}

// MarshalJSON includes the derived pass flag.
func (v ValidationResult) MarshalJSON() ([]byte, error) {
	return json.Marshal(validationJSON{
		PosePath:            v.PosePath,
		FileExists:          v.FileExists,
		ParsedOK:            v.ParsedOK,
		NChains:             v.NChains,
		AtomsPerChainOK:     v.AtomsPerChainOK,
		TwoChainInterfaceOK: v.TwoChainInterfaceOK,
		Pass:                v.Pass(),
	})
}
