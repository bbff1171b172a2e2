package webbridge

// HighlightSelection keeps the selection visibly highlighted while the editor
// is blurred (the native keyboard toolbar steals focus on mobile, which would
// otherwise hide the selection). It is installed first unless the host sets
// DisableColorHighlight.
var HighlightSelection Extension = highlightSelection{}

type highlightSelection struct{}

func (highlightSelection) ExtensionName() string { return "highlightSelection" }

// HighlightColor is the background applied to the preserved selection.
const HighlightColor = "#ACCEF7"

// HighlightClass is the CSS class the engine binding applies to the preserved
// selection.
const HighlightClass = "highlight-selection"
