package netlogolink

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
)

// Layout identifies how an engine installation arranges its archives.
type Layout int

const (
	// LayoutModern is NetLogo 6.1 and later: every archive under app/,
	// natives under natives/<platform>, a bundled JVM under runtime/.
	LayoutModern Layout = iota

	// LayoutLegacy is NetLogo 5: NetLogo.jar at the top level, support
	// archives under lib/, a bundled JVM under jre/.
	LayoutLegacy
)

func (l Layout) String() string {
	if l == LayoutLegacy {
		return "legacy"
	}
	return "modern"
}

// DefaultLinkArchive is the link program's archive name, looked up in the
// engine home when no explicit path is given.
const DefaultLinkArchive = "netlogolink.jar"

// legacyArchives are the support archives a NetLogo 5 install must provide.
var legacyArchives = []string{
	"lib/scala-library.jar",
	"lib/asm-all-3.3.1.jar",
	"lib/picocontainer-2.13.6.jar",
	"lib/log4j-1.2.16.jar",
	"lib/jmf-2.1.1e.jar",
	"lib/pegdown-1.1.0.jar",
	"lib/parboiled-core-1.0.2.jar",
	"lib/parboiled-java-1.0.2.jar",
	"lib/mrjadapter-1.2.jar",
	"lib/jhotdraw-6.0b1.jar",
	"lib/quaqua-7.3.4.jar",
	"lib/swing-layout-7.3.4.jar",
	"lib/jogl-1.1.1.jar",
	"lib/gluegen-rt-1.1.1.jar",
	"NetLogo.jar",
}

// Environment describes an engine installation and the JVM that will host
// it. Create one with CreateEnvironment, CreateEnvironmentFromHome or
// CreateEnvironmentFromSystem; all of them verify that every required
// archive exists before returning.
type Environment struct {
	// Home is the engine installation directory. The managed runtime's
	// working directory is set to Home, because the engine resolves its
	// native resources relative to it.
	Home string

	// Layout is the detected installation layout.
	Layout Layout

	// MainArchive is the engine archive (netlogo-X.Y.Z.jar or NetLogo.jar).
	MainArchive string

	// Archives is the complete class path, main archive first and the link
	// archive last.
	Archives []string

	// LinkArchive is the archive holding the link program.
	LinkArchive string

	// NativePath is the native library search path for the runtime.
	NativePath string

	// JavaPath is the java executable used to start the runtime.
	JavaPath string

	// NetLogoVersion is parsed from the main archive or the home
	// directory name. Major is 0 when neither carries a version.
	NetLogoVersion Version
}

// EnvironmentOptions configures CreateEnvironment.
type EnvironmentOptions struct {
	// Home is the engine installation directory (required).
	Home string

	// LinkArchive is the link program archive; defaults to
	// Home/netlogolink.jar.
	LinkArchive string

	// JavaHome overrides JAVA_HOME when the installation has no bundled JVM.
	JavaHome string
}

// CreateEnvironmentFromHome is CreateEnvironment with only the home and link
// archive set.
func CreateEnvironmentFromHome(home, linkArchive string) (*Environment, error) {
	return CreateEnvironment(EnvironmentOptions{Home: home, LinkArchive: linkArchive})
}

// CreateEnvironmentFromSystem reads NETLOGO_HOME and NETLOGOLINK_JAR.
func CreateEnvironmentFromSystem() (*Environment, error) {
	home := os.Getenv("NETLOGO_HOME")
	if home == "" {
		return nil, fmt.Errorf("NETLOGO_HOME is not set")
	}
	return CreateEnvironment(EnvironmentOptions{
		Home:        home,
		LinkArchive: os.Getenv("NETLOGOLINK_JAR"),
	})
}

// CreateEnvironment inspects the installation at opts.Home, assembles the
// class path and native path, and locates a JVM. Any missing archive is
// reported as a MissingArchiveError naming every absent path.
func CreateEnvironment(opts EnvironmentOptions) (*Environment, error) {
	if opts.Home == "" {
		return nil, fmt.Errorf("engine home is required")
	}
	home, err := filepath.Abs(opts.Home)
	if err != nil {
		return nil, fmt.Errorf("error resolving engine home: %v", err)
	}
	if info, err := os.Stat(home); err != nil || !info.IsDir() {
		return nil, fmt.Errorf("engine home is not a directory: %s", home)
	}

	env := &Environment{Home: home}

	var missing []string
	if isDir(filepath.Join(home, "app")) {
		env.Layout = LayoutModern
		missing = env.collectModern()
	} else {
		env.Layout = LayoutLegacy
		missing = env.collectLegacy()
	}

	env.LinkArchive = opts.LinkArchive
	if env.LinkArchive == "" {
		env.LinkArchive = filepath.Join(home, DefaultLinkArchive)
	}
	if !isFile(env.LinkArchive) {
		missing = append(missing, env.LinkArchive)
	}
	env.Archives = append(env.Archives, env.LinkArchive)

	if len(missing) > 0 {
		return nil, &MissingArchiveError{Home: home, Paths: missing}
	}

	env.NativePath = env.nativePath()

	env.JavaPath, err = findJava(home, env.Layout, opts.JavaHome)
	if err != nil {
		return nil, err
	}

	if v, err := ParseNetLogoVersion(filepath.Base(env.MainArchive)); err == nil {
		env.NetLogoVersion = v
	} else if v, err := ParseNetLogoVersion(filepath.Base(home)); err == nil {
		env.NetLogoVersion = v
	}

	return env, nil
}

// collectModern gathers app/*.jar with the engine archive first.
func (env *Environment) collectModern() []string {
	jars, _ := filepath.Glob(filepath.Join(env.Home, "app", "*.jar"))
	sort.Strings(jars)
	for _, jar := range jars {
		base := strings.ToLower(filepath.Base(jar))
		if strings.HasPrefix(base, "netlogo-") || base == "netlogo.jar" {
			env.MainArchive = jar
			break
		}
	}
	if env.MainArchive == "" {
		return []string{filepath.Join(env.Home, "app", "netlogo-*.jar")}
	}
	env.Archives = append(env.Archives, env.MainArchive)
	for _, jar := range jars {
		if jar != env.MainArchive {
			env.Archives = append(env.Archives, jar)
		}
	}
	return nil
}

// collectLegacy checks the fixed NetLogo 5 archive list.
func (env *Environment) collectLegacy() []string {
	var missing []string
	env.MainArchive = filepath.Join(env.Home, "NetLogo.jar")
	env.Archives = append(env.Archives, env.MainArchive)
	for _, rel := range legacyArchives {
		p := filepath.Join(env.Home, filepath.FromSlash(rel))
		if !isFile(p) {
			missing = append(missing, p)
			continue
		}
		if p != env.MainArchive {
			env.Archives = append(env.Archives, p)
		}
	}
	return missing
}

func (env *Environment) nativePath() string {
	if env.Layout == LayoutModern {
		if dir := filepath.Join(env.Home, "natives", nativePlatform()); isDir(dir) {
			return dir
		}
		if dir := filepath.Join(env.Home, "natives"); isDir(dir) {
			return dir
		}
	} else if dir := filepath.Join(env.Home, "lib"); isDir(dir) {
		return dir
	}
	return env.Home
}

func nativePlatform() string {
	switch runtime.GOOS {
	case "darwin":
		return "macosx-universal"
	case "windows":
		if runtime.GOARCH == "386" {
			return "windows-i586"
		}
		return "windows-amd64"
	default:
		return runtime.GOOS + "-" + runtime.GOARCH
	}
}

// ClassPath joins Archives with the platform list separator.
func (env *Environment) ClassPath() string {
	return strings.Join(env.Archives, string(os.PathListSeparator))
}

// DetectJavaVersion runs "java -version" and parses its banner.
func (env *Environment) DetectJavaVersion() (Version, error) {
	out, err := exec.Command(env.JavaPath, "-version").CombinedOutput()
	if err != nil {
		return Version{}, fmt.Errorf("error running java -version: %v", err)
	}
	return ParseJavaVersion(string(out))
}

// findJava prefers the installation's bundled JVM, then javaHome or
// JAVA_HOME, then PATH.
func findJava(home string, layout Layout, javaHome string) (string, error) {
	exe := "java"
	if runtime.GOOS == "windows" {
		exe = "java.exe"
	}

	bundled := filepath.Join(home, "runtime", "bin", exe)
	if layout == LayoutLegacy {
		bundled = filepath.Join(home, "jre", "bin", exe)
	}
	if isFile(bundled) {
		return bundled, nil
	}

	if javaHome == "" {
		javaHome = os.Getenv("JAVA_HOME")
	}
	if javaHome != "" {
		if p := filepath.Join(javaHome, "bin", exe); isFile(p) {
			return p, nil
		}
	}

	p, err := exec.LookPath(exe)
	if err != nil {
		return "", fmt.Errorf("no java runtime found (bundled, JAVA_HOME or PATH): %v", err)
	}
	return p, nil
}

func isDir(p string) bool {
	info, err := os.Stat(p)
	return err == nil && info.IsDir()
}

func isFile(p string) bool {
	info, err := os.Stat(p)
	return err == nil && !info.IsDir()
}
