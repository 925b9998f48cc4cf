package ecmascript

// Classification tables for flattened call chains. A chain matches by
// exact name, by prefix (the chain or a dotted ancestor of it), or by
// its final segment, depending on how the underlying API is addressed
// in real code: `document.createElement` is always rooted, while
// `appendChild` hangs off any element reference.

var domCreateCalls = map[string]struct{}{
	"document.createElement":          {},
	"document.createElementNS":        {},
	"document.createTextNode":         {},
	"document.createDocumentFragment": {},
}

var domQueryCalls = map[string]struct{}{
	"document.getElementById":          {},
	"document.getElementsByClassName":  {},
	"document.getElementsByTagName":    {},
	"document.querySelector":           {},
	"document.querySelectorAll":        {},
	"document.getElementsByName":       {},
	"document.elementFromPoint":        {},
	"document.getSelection":            {},
	"window.getComputedStyle":          {},
	"document.createNodeIterator":      {},
	"document.createTreeWalker":        {},
	"document.evaluate":                {},
	"document.caretPositionFromPoint":  {},
	"document.caretRangeFromPoint":     {},
	"document.getAnimations":           {},
	"document.getElementsByTagNameNS":  {},
	"document.adoptNode":               {},
	"document.hasFocus":                {},
}

// domQueryMethods match by final segment on any receiver.
var domQueryMethods = map[string]struct{}{
	"querySelector":    {},
	"querySelectorAll": {},
	"closest":          {},
	"matches":          {},
}

// domModifyMethods match by final segment on any receiver.
var domModifyMethods = map[string]struct{}{
	"appendChild":        {},
	"removeChild":        {},
	"replaceChild":       {},
	"replaceChildren":    {},
	"insertBefore":       {},
	"insertAdjacentHTML": {},
	"insertAdjacentText": {},
	"setAttribute":       {},
	"removeAttribute":    {},
	"toggleAttribute":    {},
}

// domMutationProps are element properties whose assignment counts as a
// DOM modification.
var domMutationProps = map[string]struct{}{
	"innerHTML":   {},
	"outerHTML":   {},
	"textContent": {},
	"innerText":   {},
	"value":       {},
	"src":         {},
	"href":        {},
	"className":   {},
	"checked":     {},
	"disabled":    {},
	"hidden":      {},
}

var storageRoots = map[string]struct{}{
	"localStorage":   {},
	"sessionStorage": {},
	"indexedDB":      {},
}

var storageReadMethods = map[string]struct{}{
	"getItem": {},
	"key":     {},
	"open":    {},
	"get":     {},
	"getAll":  {},
}

var storageWriteMethods = map[string]struct{}{
	"setItem":    {},
	"removeItem": {},
	"clear":      {},
	"put":        {},
	"add":        {},
	"delete":     {},
}

var timerCalls = map[string]struct{}{
	"setTimeout":            {},
	"setInterval":           {},
	"setImmediate":          {},
	"queueMicrotask":        {},
	"requestAnimationFrame": {},
	"requestIdleCallback":   {},
}

var timeCalls = map[string]struct{}{
	"Date.now":        {},
	"performance.now": {},
}

var randomCalls = map[string]struct{}{
	"Math.random":            {},
	"crypto.randomUUID":      {},
	"crypto.getRandomValues": {},
}

var networkCalls = map[string]struct{}{
	"fetch":        {},
	"$.ajax":       {},
	"$.get":        {},
	"$.post":       {},
	"window.fetch": {},
}

// networkRoots match the first chain segment.
var networkRoots = map[string]struct{}{
	"axios": {},
}

var networkCtors = map[string]struct{}{
	"XMLHttpRequest": {},
	"WebSocket":      {},
	"EventSource":    {},
}

var eventListenMethods = map[string]struct{}{
	"addEventListener":    {},
	"removeEventListener": {},
}

var eventDispatchMethods = map[string]struct{}{
	"dispatchEvent": {},
	"emit":          {},
}

// fsReadCalls and fsWriteCalls cover the Node file API addressed via a
// conventional `fs` binding.
var fsReadCalls = map[string]struct{}{
	"fs.readFile":          {},
	"fs.readFileSync":      {},
	"fs.createReadStream":  {},
	"fs.promises.readFile": {},
	"fs.readdir":           {},
	"fs.readdirSync":       {},
	"fs.existsSync":        {},
	"fs.statSync":          {},
	"fs.stat":              {},
}

var fsWriteCalls = map[string]struct{}{
	"fs.writeFile":          {},
	"fs.writeFileSync":      {},
	"fs.appendFile":         {},
	"fs.appendFileSync":     {},
	"fs.createWriteStream":  {},
	"fs.promises.writeFile": {},
	"fs.mkdir":              {},
	"fs.mkdirSync":          {},
	"fs.unlink":             {},
	"fs.unlinkSync":         {},
	"fs.rm":                 {},
	"fs.rmSync":             {},
}

var userInputCalls = map[string]struct{}{
	"prompt":  {},
	"confirm": {},
}

var userOutputCalls = map[string]struct{}{
	"alert": {},
}
