package csharp

import (
	"fmt"
	"regexp"
)

// controlFlowKeywords are tokens that look like calls (`if (`, `for (`)
// and must never be recorded as call events.
var controlFlowKeywords = map[string]struct{}{
	"if": {}, "else": {}, "for": {}, "foreach": {}, "while": {}, "do": {},
	"switch": {}, "catch": {}, "using": {}, "lock": {}, "fixed": {},
	"return": {}, "throw": {}, "typeof": {}, "nameof": {}, "sizeof": {},
	"checked": {}, "unchecked": {}, "when": {}, "case": {}, "default": {},
	"new": {}, "base": {}, "this": {}, "out": {}, "in": {}, "is": {}, "as": {},
}

// declModifiers are the tokens accepted before a type in a member
// declaration. The declaration pattern requires at least one of them.
const declModifiers = `public|private|protected|internal|static|virtual|override|abstract|sealed|async|partial|extern|unsafe|readonly|new`

// apiRule maps a fully-qualified call prefix to a classification.
type apiRule struct {
	prefix string
	kind   ruleKind
	tag    string // side-effect tag
	label  string // IO category
}

type ruleKind int

const (
	kindInput ruleKind = iota
	kindOutput
	kindEffectOnly
)

// apiRules is the fixed table of fully-qualified API names. Prefix match
// against the flattened call chain; first hit wins.
var apiRules = []apiRule{
	// File reads
	{"File.ReadAllText", kindInput, "FILE:read", "FILE"},
	{"File.ReadAllLines", kindInput, "FILE:read", "FILE"},
	{"File.ReadAllBytes", kindInput, "FILE:read", "FILE"},
	{"File.ReadLines", kindInput, "FILE:read", "FILE"},
	{"File.OpenRead", kindInput, "FILE:read", "FILE"},
	{"File.OpenText", kindInput, "FILE:read", "FILE"},
	{"File.Exists", kindInput, "FILE:read", "FILE"},
	{"Directory.GetFiles", kindInput, "FILE:read", "FILE"},
	{"Directory.EnumerateFiles", kindInput, "FILE:read", "FILE"},
	{"Directory.Exists", kindInput, "FILE:read", "FILE"},
	{"StreamReader", kindInput, "FILE:read", "FILE"},

	// File writes
	{"File.WriteAllText", kindOutput, "FILE:write", "FILE"},
	{"File.WriteAllLines", kindOutput, "FILE:write", "FILE"},
	{"File.WriteAllBytes", kindOutput, "FILE:write", "FILE"},
	{"File.AppendAllText", kindOutput, "FILE:write", "FILE"},
	{"File.AppendAllLines", kindOutput, "FILE:write", "FILE"},
	{"File.Create", kindOutput, "FILE:write", "FILE"},
	{"File.Delete", kindOutput, "FILE:write", "FILE"},
	{"File.Copy", kindOutput, "FILE:write", "FILE"},
	{"File.Move", kindOutput, "FILE:write", "FILE"},
	{"Directory.CreateDirectory", kindOutput, "FILE:write", "FILE"},
	{"Directory.Delete", kindOutput, "FILE:write", "FILE"},
	{"StreamWriter", kindOutput, "FILE:write", "FILE"},

	// Console
	{"Console.WriteLine", kindOutput, "LOG:print", "LOG"},
	{"Console.Write", kindOutput, "LOG:print", "LOG"},
	{"Console.Error.WriteLine", kindOutput, "LOG:print", "LOG"},
	{"Debug.WriteLine", kindOutput, "LOG:print", "LOG"},
	{"Trace.WriteLine", kindOutput, "LOG:print", "LOG"},
	{"Console.ReadLine", kindInput, "USER:input", "USER"},
	{"Console.ReadKey", kindInput, "USER:input", "USER"},
	{"Console.Read", kindInput, "USER:input", "USER"},

	// Network: legacy clients
	{"WebClient", kindOutput, "NETWORK:request", "NETWORK"},
	{"HttpWebRequest", kindOutput, "NETWORK:request", "NETWORK"},
	{"WebRequest.Create", kindOutput, "NETWORK:request", "NETWORK"},
	// Network: modern client
	{"HttpClient", kindOutput, "NETWORK:request", "NETWORK"},

	// Non-determinism
	{"Random", kindEffectOnly, "RANDOM", ""},
	{"Guid.NewGuid", kindEffectOnly, "RANDOM", ""},
	{"Stopwatch.StartNew", kindEffectOnly, "TIME", ""},

	// Environment and processes
	{"Environment.GetEnvironmentVariable", kindInput, "CONFIG:read", "CONFIG"},
	{"Environment.SetEnvironmentVariable", kindOutput, "CONFIG:write", "CONFIG"},
	{"Environment.Exit", kindEffectOnly, "PROC:exit", ""},
	{"Process.Start", kindEffectOnly, "PROC:start", ""},
}

// flexRule is a regex-labeled pattern: every concrete spelling that
// matches contributes the same canonical label.
type flexRule struct {
	rx    *regexp.Regexp
	kind  ruleKind
	tag   string
	label string // full CATEGORY:detail item; the match text is discarded
}

// propRules classify property accesses, which the call pattern never
// sees because no paren follows them.
var propRules = []flexRule{
	{rx: regexp.MustCompile(`\bDateTime\.Now\b`), kind: kindEffectOnly, tag: "TIME"},
	{rx: regexp.MustCompile(`\bDateTime\.UtcNow\b`), kind: kindEffectOnly, tag: "TIME"},
	{rx: regexp.MustCompile(`\bDateTimeOffset\.(?:Now|UtcNow)\b`), kind: kindEffectOnly, tag: "TIME"},
}

var flexRules = []flexRule{
	{
		rx:    regexp.MustCompile(`(?i)\b(?:ConfigurationManager|IConfiguration|ConfigurationBuilder)\b\s*[.\[(]`),
		kind:  kindInput,
		tag:   "CONFIG:read",
		label: "CONFIG:configuration",
	},
	{
		rx:    regexp.MustCompile(`(?i)\bAppSettings\s*[.\[]`),
		kind:  kindInput,
		tag:   "CONFIG:read",
		label: "CONFIG:configuration",
	},
	{
		rx:    regexp.MustCompile(`\b(?:_?[Ll]og(?:ger)?)\.(?:Trace|Debug|Info|Information|Warn|Warning|Error|Critical|Fatal)\s*\(`),
		kind:  kindOutput,
		tag:   "LOG:logger",
		label: "LOG:logger",
	},
}

var (
	typeDeclRx = regexp.MustCompile(`\b(?:class|struct|interface|record)\s+([A-Za-z_]\w*)`)

	ctorDeclRx = regexp.MustCompile(
		`^\s*(?:(?:public|private|protected|internal|static)\s+)+([A-Za-z_]\w*)\s*\(`)

	usingStaticRx = regexp.MustCompile(`^\s*(?:global\s+)?using\s+static\s+([\w.]+)\s*;`)
	usingAliasRx  = regexp.MustCompile(`^\s*(?:global\s+)?using\s+[A-Za-z_]\w*\s*=\s*([\w.]+)\s*;`)
	usingRx       = regexp.MustCompile(`^\s*(?:global\s+)?using\s+([\w.]+)\s*;`)

	staticFieldRx = regexp.MustCompile(
		`^\s*(?:(?:public|private|protected|internal)\s+)*static\s+(?:readonly\s+)?[\w.<>\[\],? ]+\s+([A-Za-z_]\w*)\s*[=;]`)
)

// compileMethodDeclRx builds the method declaration pattern with the
// configured generic-argument bound.
func compileMethodDeclRx(genericArgLen int) *regexp.Regexp {
	return regexp.MustCompile(fmt.Sprintf(
		`^\s*(?:\[[^\]]*\]\s*)*(?:(?:%s)\s+)+[\w.<>\[\],? ]+\s+([A-Za-z_]\w*)\s*(?:<[^()]{0,%d}>)?\s*\(`,
		declModifiers, genericArgLen))
}

// compileCallRx builds the call pattern with the configured dotted-chain
// and generic-argument bounds. chainSegments counts total segments, so
// the repeat bound is one less.
func compileCallRx(chainSegments, genericArgLen int) *regexp.Regexp {
	extra := chainSegments - 1
	if extra < 0 {
		extra = 0
	}
	return regexp.MustCompile(fmt.Sprintf(
		`[A-Za-z_]\w*(?:\.[A-Za-z_]\w*){0,%d}(?:<[^<>()]{0,%d}>)?\s*\(`,
		extra, genericArgLen))
}
