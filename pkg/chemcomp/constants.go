package chemcomp

// ProcessingSite is the deposition site that processed the component.
type ProcessingSite string

const (
	SiteRCSB ProcessingSite = "RCSB"
	SitePDBE ProcessingSite = "PDBE"
	SitePDBJ ProcessingSite = "PDBJ"
	SitePDBC ProcessingSite = "PDBC"
	SiteEBI  ProcessingSite = "EBI"
)

// ReleaseStatus is the release state of the component definition.
type ReleaseStatus string

const (
	StatusReleased ReleaseStatus = "REL"
	StatusHold     ReleaseStatus = "HOLD"
	StatusHPUB     ReleaseStatus = "HPUB"
	StatusObsolete ReleaseStatus = "OBS"
	StatusWait     ReleaseStatus = "WAIT"
	StatusRefOnly  ReleaseStatus = "REF_ONLY"
)

// AmbiguousFlag marks components whose definition is ambiguous.
type AmbiguousFlag string

const (
	AmbiguousYes AmbiguousFlag = "Y"
	AmbiguousNo  AmbiguousFlag = "N"
)

// ProcessingSites lists the recognized processing sites.
func ProcessingSites() []string {
	return []string{string(SiteRCSB), string(SitePDBE), string(SitePDBJ), string(SitePDBC), string(SiteEBI)}
}

// ReleaseStatuses lists the recognized release statuses.
func ReleaseStatuses() []string {
	return []string{
		string(StatusReleased), string(StatusHold), string(StatusHPUB),
		string(StatusObsolete), string(StatusWait), string(StatusRefOnly),
	}
}

// AmbiguousFlags lists the recognized ambiguity flags.
func AmbiguousFlags() []string {
	return []string{string(AmbiguousYes), string(AmbiguousNo)}
}

// Constants are the header attributes that stay the same for every record
// produced under one configuration.
type Constants struct {
	ProcessingSite ProcessingSite `yaml:"processing_site" validate:"required,oneof=RCSB PDBE PDBJ PDBC EBI"`
	ReleaseStatus  ReleaseStatus  `yaml:"release_status" validate:"required,oneof=REL HOLD HPUB OBS WAIT REF_ONLY"`
	AmbiguousFlag  AmbiguousFlag  `yaml:"ambiguous_flag" validate:"required,oneof=Y N"`
}

// DefaultConstants returns the constants used when nothing else is configured.
func DefaultConstants() Constants {
	return Constants{
		ProcessingSite: SiteRCSB,
		ReleaseStatus:  StatusReleased,
		AmbiguousFlag:  AmbiguousNo,
	}
}

// WithDefaults fills the zero-valued fields of c from defaults.
func (c Constants) WithDefaults(defaults Constants) Constants {
	if c.ProcessingSite == "" {
		c.ProcessingSite = defaults.ProcessingSite
	}
	if c.ReleaseStatus == "" {
		c.ReleaseStatus = defaults.ReleaseStatus
	}
	if c.AmbiguousFlag == "" {
		c.AmbiguousFlag = defaults.AmbiguousFlag
	}
	return c
}

// ComponentTypes lists the chem_comp.type categories of the dictionary.
func ComponentTypes() []string {
	return []string{
		"D-BETA-PEPTIDE, C-GAMMA LINKING",
		"D-GAMMA-PEPTIDE, C-DELTA LINKING",
		"D-PEPTIDE COOH CARBOXY TERMINUS",
		"D-PEPTIDE NH3 AMINO TERMINUS",
		"D-PEPTIDE LINKING",
		"D-SACCHARIDE",
		"D-SACCHARIDE, ALPHA LINKING",
		"D-SACCHARIDE, BETA LINKING",
		"DNA OH 3 PRIME TERMINUS",
		"DNA OH 5 PRIME TERMINUS",
		"DNA LINKING",
		"L-BETA-PEPTIDE, C-GAMMA LINKING",
		"L-DNA LINKING",
		"L-GAMMA-PEPTIDE, C-DELTA LINKING",
		"L-PEPTIDE COOH CARBOXY TERMINUS",
		"L-PEPTIDE NH3 AMINO TERMINUS",
		"L-PEPTIDE LINKING",
		"L-RNA LINKING",
		"L-SACCHARIDE",
		"L-SACCHARIDE, ALPHA LINKING",
		"L-SACCHARIDE, BETA LINKING",
		"NON-POLYMER",
		"OTHER",
		"PEPTIDE LINKING",
		"PEPTIDE-LIKE",
		"RNA OH 3 PRIME TERMINUS",
		"RNA OH 5 PRIME TERMINUS",
		"RNA LINKING",
		"SACCHARIDE",
	}
}
