package netlogolink

import (
	"fmt"
	"strings"
)

// Engine exception classes the facade translates.
const (
	ClassIOException          = "java.io.IOException"
	ClassInterruptedException = "java.lang.InterruptedException"
	ClassException            = "java.lang.Exception"
	ClassLogoException        = "org.nlogo.api.LogoException"
	ClassCompilerException    = "org.nlogo.core.CompilerException"

	// NetLogo 5 kept the compiler exception in the api package.
	ClassLegacyCompilerException = "org.nlogo.api.CompilerException"
)

// EngineException represents an exception thrown inside the managed runtime.
// It captures the exception class, its superclass chain, the message and
// the stack trace.
//
// An EngineException is returned untranslated by operations whose contract
// does not cover its class; see Link.
type EngineException struct {
	// Class is the fully qualified exception class name.
	Class string `msgpack:"class" json:"class"`

	// Hierarchy lists the superclasses of Class, nearest first.
	Hierarchy []string `msgpack:"hierarchy" json:"hierarchy,omitempty"`

	// Message is the exception message. It may be empty.
	Message string `msgpack:"message" json:"message"`

	// StackTrace is the formatted Java stack trace.
	StackTrace string `msgpack:"stacktrace" json:"stacktrace,omitempty"`

	// Cause is the chained exception, if any.
	Cause *EngineException `msgpack:"cause" json:"cause,omitempty"`
}

// ToString formats the exception with its trace and the full cause chain.
func (e *EngineException) ToString() string {
	var b strings.Builder
	for ex, i := e, 0; ex != nil; ex, i = ex.Cause, i+1 {
		if i > 0 {
			b.WriteString("\nCaused by: ")
		}
		fmt.Fprintf(&b, "%s: %s", ex.Class, ex.Message)
		if ex.StackTrace != "" {
			b.WriteString("\n")
			b.WriteString(ex.StackTrace)
		}
	}
	return b.String()
}

func (e *EngineException) Error() string {
	if e.Message == "" {
		return e.Class
	}
	return e.Class + ": " + e.Message
}

// IsA reports whether the exception is an instance of class, either
// directly or through its superclass chain.
func (e *EngineException) IsA(class string) bool {
	if e == nil {
		return false
	}
	if e.Class == class {
		return true
	}
	for _, c := range e.Hierarchy {
		if c == class {
			return true
		}
	}
	return false
}

func (e *EngineException) isLogo() bool { return e.IsA(ClassLogoException) }

func (e *EngineException) isCompiler() bool {
	return e.IsA(ClassCompilerException) || e.IsA(ClassLegacyCompilerException)
}
