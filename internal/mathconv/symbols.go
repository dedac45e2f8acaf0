package mathconv

var greekLetters = map[string]string{
	"alpha": "α", "beta": "β", "gamma": "γ", "delta": "δ", "epsilon": "ε",
	"zeta": "ζ", "eta": "η", "theta": "θ", "iota": "ι", "kappa": "κ",
	"lambda": "λ", "mu": "μ", "nu": "ν", "xi": "ξ", "omicron": "ο",
	"pi": "π", "rho": "ρ", "sigma": "σ", "tau": "τ", "upsilon": "υ",
	"phi": "φ", "chi": "χ", "psi": "ψ", "omega": "ω",
	"varepsilon": "ε", "vartheta": "ϑ", "varpi": "ϖ", "varrho": "ϱ",
	"varsigma": "ς", "varphi": "ϕ",

	"Gamma": "Γ", "Delta": "Δ", "Theta": "Θ", "Lambda": "Λ", "Xi": "Ξ",
	"Pi": "Π", "Sigma": "Σ", "Upsilon": "Υ", "Phi": "Φ", "Psi": "Ψ", "Omega": "Ω",
}

// \sqrt is absent on purpose: the root rules need its argument.
var mathSymbols = map[string]string{
	// operators
	"times": "×", "div": "÷", "cdot": "·", "pm": "±", "mp": "∓",
	"ast": "∗", "star": "⋆", "circ": "∘", "bullet": "•",
	// relations
	"le": "≤", "leq": "≤", "ge": "≥", "geq": "≥", "ne": "≠", "neq": "≠",
	"approx": "≈", "equiv": "≡", "sim": "∼", "simeq": "≃",
	"ll": "≪", "gg": "≫", "subset": "⊂", "supset": "⊃",
	"subseteq": "⊆", "supseteq": "⊇", "in": "∈", "notin": "∉", "ni": "∋",
	// arrows
	"to": "→", "rightarrow": "→", "leftarrow": "←", "leftrightarrow": "↔",
	"Rightarrow": "⇒", "Leftarrow": "⇐", "Leftrightarrow": "⇔",
	"uparrow": "↑", "downarrow": "↓", "mapsto": "↦",
	// logic
	"land": "∧", "lor": "∨", "lnot": "¬", "neg": "¬",
	"forall": "∀", "exists": "∃", "nexists": "∄",
	// sets
	"emptyset": "∅", "varnothing": "∅",
	"cup": "∪", "cap": "∩", "setminus": "∖",
	// calculus
	"partial": "∂", "nabla": "∇", "infty": "∞",
	"int": "∫", "iint": "∬", "iiint": "∭", "oint": "∮",
	"sum": "∑", "prod": "∏", "coprod": "∐",
	// misc
	"surd": "√", "prime": "′", "angle": "∠",
	"triangle": "△", "square": "□", "diamond": "◇",
	"ldots": "…", "cdots": "⋯", "vdots": "⋮", "ddots": "⋱",
	"aleph": "ℵ", "hbar": "ℏ", "ell": "ℓ", "wp": "℘", "Re": "ℜ", "Im": "ℑ",
	// brackets
	"langle": "⟨", "rangle": "⟩", "lceil": "⌈", "rceil": "⌉",
	"lfloor": "⌊", "rfloor": "⌋",
}

var superscripts = map[rune]string{
	'0': "⁰", '1': "¹", '2': "²", '3': "³", '4': "⁴",
	'5': "⁵", '6': "⁶", '7': "⁷", '8': "⁸", '9': "⁹",
	'+': "⁺", '-': "⁻", '=': "⁼", '(': "⁽", ')': "⁾",
	'n': "ⁿ", 'i': "ⁱ",
}

var subscripts = map[rune]string{
	'0': "₀", '1': "₁", '2': "₂", '3': "₃", '4': "₄",
	'5': "₅", '6': "₆", '7': "₇", '8': "₈", '9': "₉",
	'+': "₊", '-': "₋", '=': "₌", '(': "₍", ')': "₎",
	'a': "ₐ", 'e': "ₑ", 'o': "ₒ", 'x': "ₓ",
	'i': "ᵢ", 'j': "ⱼ", 'k': "ₖ", 'n': "ₙ", 'r': "ᵣ", 's': "ₛ",
}

// Functions typeset upright.
var functionNames = []string{
	"sin", "cos", "tan", "cot", "sec", "csc",
	"arcsin", "arccos", "arctan",
	"sinh", "cosh", "tanh", "coth",
	"exp", "log", "ln", "lg",
	"det", "dim", "ker", "max", "min", "sup", "inf",
	"gcd", "lcm", "arg", "deg", "lim",
}

// Combining marks appended by the accent commands.
var accents = map[string]string{
	"overline": "\u0304",
	"bar":      "\u0304",
	"hat":      "\u0302",
	"tilde":    "\u0303",
	"dot":      "\u0307",
	"ddot":     "\u0308",
	"vec":      "\u20d7",
}

const combiningLowLine = "\u0332"

func toMathBold(r rune) rune {
	switch {
	case r >= 'A' && r <= 'Z':
		return 0x1d400 + (r - 'A')
	case r >= 'a' && r <= 'z':
		return 0x1d41a + (r - 'a')
	case r >= '0' && r <= '9':
		return 0x1d7ce + (r - '0')
	}
	return r
}

func toMathItalic(r rune) rune {
	switch {
	case r >= 'A' && r <= 'Z':
		return 0x1d434 + (r - 'A')
	case r == 'h':
		return 'ℎ'
	case r >= 'a' && r <= 'z':
		return 0x1d44e + (r - 'a')
	}
	return r
}
