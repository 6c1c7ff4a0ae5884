package enums

type StrikeType string

const (
	StrikeTypeContentViolation    StrikeType = "content_violation"
	StrikeTypeSpam                StrikeType = "spam"
	StrikeTypeHarassment          StrikeType = "harassment"
	StrikeTypeCopyright           StrikeType = "copyright"
	StrikeTypeAdultContent        StrikeType = "adult_content"
	StrikeTypeHateSpeech          StrikeType = "hate_speech"
	StrikeTypeViolence            StrikeType = "violence"
	StrikeTypeMisinformation      StrikeType = "misinformation"
	StrikeTypeCommunityGuidelines StrikeType = "community_guidelines"
	StrikeTypeOther               StrikeType = "other"
)

var strikeTypeLabels = map[StrikeType]string{
	StrikeTypeContentViolation:    "Content Policy Violation",
	StrikeTypeSpam:                "Spam or Misleading Content",
	StrikeTypeHarassment:          "Harassment or Bullying",
	StrikeTypeCopyright:           "Copyright Infringement",
	StrikeTypeAdultContent:        "Adult Content",
	StrikeTypeHateSpeech:          "Hate Speech",
	StrikeTypeViolence:            "Violence or Dangerous Content",
	StrikeTypeMisinformation:      "Misinformation",
	StrikeTypeCommunityGuidelines: "Community Guidelines Violation",
	StrikeTypeOther:               "Other Violation",
}

func (t StrikeType) Valid() bool {
	_, ok := strikeTypeLabels[t]
	return ok
}

func (t StrikeType) Label() string {
	if label, ok := strikeTypeLabels[t]; ok {
		return label
	}
	return string(t)
}
