package intent

import (
	"regexp"

	"github.com/ganeshmamidipalli/GANI/internal/domain"
)

// patternSpec pairs one keyword expression with its intent. Expressions are
// regexp fragments matched inside word boundaries; specificity is the
// expression's rune length, so longer phrases outrank generic keywords.
type patternSpec struct {
	expr   string
	intent domain.Intent
}

// routingTable is the flattened keyword table, one row per expression.
var routingTable = []patternSpec{
	{"intro", domain.IntentIntro},
	{"introduction", domain.IntentIntro},
	{"background", domain.IntentIntro},
	{"about", domain.IntentIntro},
	{"who are you", domain.IntentIntro},
	{"elevator pitch", domain.IntentIntro},
	{"tell me about yourself", domain.IntentIntro},
	{"your story", domain.IntentIntro},
	{"ganesh", domain.IntentIntro},
	{"gani", domain.IntentIntro},
	{"personal", domain.IntentIntro},
	{"bio", domain.IntentIntro},
	{"story", domain.IntentIntro},
	{"experience", domain.IntentIntro},
	{"journey", domain.IntentIntro},
	{"where.*from", domain.IntentIntro},
	{"what.*do", domain.IntentIntro},
	{"how.*start", domain.IntentIntro},
	{"beginning", domain.IntentIntro},
	{"origin", domain.IntentIntro},

	{"technical", domain.IntentTechnical},
	{"project", domain.IntentTechnical},
	{"code", domain.IntentTechnical},
	{"algorithm", domain.IntentTechnical},
	{"implementation", domain.IntentTechnical},
	{"architecture", domain.IntentTechnical},
	{"system", domain.IntentTechnical},
	{"design", domain.IntentTechnical},
	{"development", domain.IntentTechnical},
	{"wsdm", domain.IntentTechnical},
	{"machine learning", domain.IntentTechnical},
	{"ml", domain.IntentTechnical},
	{"ai", domain.IntentTechnical},
	{"data", domain.IntentTechnical},
	{"research", domain.IntentTechnical},
	{"paper", domain.IntentTechnical},
	{"methodology", domain.IntentTechnical},
	{"approach", domain.IntentTechnical},
	{"experiment", domain.IntentTechnical},
	{"performance", domain.IntentTechnical},
	{"metrics", domain.IntentTechnical},
	{"results", domain.IntentTechnical},
	{"evaluation", domain.IntentTechnical},
	{"model", domain.IntentTechnical},
	{"training", domain.IntentTechnical},
	{"optimization", domain.IntentTechnical},
	{"deep learning", domain.IntentTechnical},
	{"neural networks", domain.IntentTechnical},
	{"computer vision", domain.IntentTechnical},
	{"nlp", domain.IntentTechnical},
	{"data science", domain.IntentTechnical},
	{"statistics", domain.IntentTechnical},
	{"programming", domain.IntentTechnical},
	{"software", domain.IntentTechnical},
	{"engineering", domain.IntentTechnical},
	{"technical details", domain.IntentTechnical},

	{"conflict", domain.IntentHR},
	{"teamwork", domain.IntentHR},
	{"collaboration", domain.IntentHR},
	{"challenge", domain.IntentHR},
	{"difficulty", domain.IntentHR},
	{"problem", domain.IntentHR},
	{"situation", domain.IntentHR},
	{"handled", domain.IntentHR},
	{"resolved", domain.IntentHR},
	{"behavioral", domain.IntentHR},
	{"star", domain.IntentHR},
	{"example", domain.IntentHR},
	{"experience", domain.IntentHR},
	{"time when", domain.IntentHR},
	{"tell me about a time", domain.IntentHR},
	{"leadership", domain.IntentHR},
	{"mentor", domain.IntentHR},
	{"help", domain.IntentHR},
	{"support", domain.IntentHR},
	{"communication", domain.IntentHR},
	{"feedback", domain.IntentHR},
	{"interpersonal", domain.IntentHR},
	{"work.*team", domain.IntentHR},
	{"handle.*conflict", domain.IntentHR},
	{"deal.*difficult", domain.IntentHR},
	{"resolve.*issue", domain.IntentHR},
	{"mentoring", domain.IntentHR},
	{"helping others", domain.IntentHR},

	{"lead", domain.IntentManager},
	{"manage", domain.IntentManager},
	{"team", domain.IntentManager},
	{"prioritize", domain.IntentManager},
	{"roadmap", domain.IntentManager},
	{"strategy", domain.IntentManager},
	{"decision", domain.IntentManager},
	{"tradeoff", domain.IntentManager},
	{"resource", domain.IntentManager},
	{"planning", domain.IntentManager},
	{"execution", domain.IntentManager},
	{"delivery", domain.IntentManager},
	{"timeline", domain.IntentManager},
	{"budget", domain.IntentManager},
	{"stakeholder", domain.IntentManager},
	{"coordinate", domain.IntentManager},
	{"mentor", domain.IntentManager},
	{"coach", domain.IntentManager},
	{"develop", domain.IntentManager},
	{"performance", domain.IntentManager},
	{"review", domain.IntentManager},
	{"feedback", domain.IntentManager},
	{"growth", domain.IntentManager},
	{"leadership", domain.IntentManager},
	{"team.*lead", domain.IntentManager},
	{"project.*manage", domain.IntentManager},
	{"prioritize.*work", domain.IntentManager},
	{"make.*decision", domain.IntentManager},
}

type compiledPattern struct {
	re          *regexp.Regexp
	intent      domain.Intent
	specificity int
}

var compiledTable = compileTable(routingTable)

func compileTable(specs []patternSpec) []compiledPattern {
	out := make([]compiledPattern, len(specs))
	for i, s := range specs {
		out[i] = compiledPattern{
			re:          regexp.MustCompile(`(?i)\b(?:` + s.expr + `)\b`),
			intent:      s.intent,
			specificity: len([]rune(s.expr)),
		}
	}
	return out
}
