package netlogolink

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"runtime"
	"strings"
	"testing"
)

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, nil, 0755); err != nil {
		t.Fatal(err)
	}
}

func javaExe() string {
	if runtime.GOOS == "windows" {
		return "java.exe"
	}
	return "java"
}

// modernHome lays out a NetLogo 6.1+ installation.
func modernHome(t *testing.T) string {
	t.Helper()
	home := filepath.Join(t.TempDir(), "NetLogo 6.4.0")
	touch(t, filepath.Join(home, "app", "netlogo-6.4.0.jar"))
	touch(t, filepath.Join(home, "app", "scala-library-2.12.jar"))
	touch(t, filepath.Join(home, "app", "asm-9.jar"))
	touch(t, filepath.Join(home, "runtime", "bin", javaExe()))
	if err := os.MkdirAll(filepath.Join(home, "natives", nativePlatform()), 0755); err != nil {
		t.Fatal(err)
	}
	return home
}

func TestCreateEnvironmentModern(t *testing.T) {
	home := modernHome(t)
	touch(t, filepath.Join(home, DefaultLinkArchive))

	env, err := CreateEnvironmentFromHome(home, "")
	if err != nil {
		t.Fatalf("CreateEnvironment failed: %v", err)
	}

	if env.Layout != LayoutModern {
		t.Errorf("Expected modern layout, got %s", env.Layout)
	}
	want := []string{
		filepath.Join(home, "app", "netlogo-6.4.0.jar"),
		filepath.Join(home, "app", "asm-9.jar"),
		filepath.Join(home, "app", "scala-library-2.12.jar"),
		filepath.Join(home, DefaultLinkArchive),
	}
	if !reflect.DeepEqual(env.Archives, want) {
		t.Errorf("Archives = %v, want %v", env.Archives, want)
	}
	if env.MainArchive != want[0] {
		t.Errorf("Expected main archive %s, got %s", want[0], env.MainArchive)
	}
	if env.NativePath != filepath.Join(home, "natives", nativePlatform()) {
		t.Errorf("Unexpected native path %s", env.NativePath)
	}
	if env.JavaPath != filepath.Join(home, "runtime", "bin", javaExe()) {
		t.Errorf("Expected bundled java, got %s", env.JavaPath)
	}
	if env.NetLogoVersion.String() != "6.4.0" {
		t.Errorf("Expected version 6.4.0, got %s", env.NetLogoVersion.String())
	}
	if cp := env.ClassPath(); strings.Count(cp, string(os.PathListSeparator)) != len(want)-1 {
		t.Errorf("Unexpected class path %s", cp)
	}
}

func TestCreateEnvironmentExplicitLinkArchive(t *testing.T) {
	home := modernHome(t)
	link := filepath.Join(t.TempDir(), "custom-link.jar")
	touch(t, link)

	env, err := CreateEnvironment(EnvironmentOptions{Home: home, LinkArchive: link})
	if err != nil {
		t.Fatalf("CreateEnvironment failed: %v", err)
	}
	if env.LinkArchive != link || env.Archives[len(env.Archives)-1] != link {
		t.Errorf("Expected link archive %s last on the class path, got %v", link, env.Archives)
	}
}

func TestCreateEnvironmentMissingLinkArchive(t *testing.T) {
	home := modernHome(t)

	_, err := CreateEnvironmentFromHome(home, "")
	if !errors.Is(err, ErrMissingArchive) {
		t.Fatalf("Expected ErrMissingArchive, got %v", err)
	}
	var missing *MissingArchiveError
	if !errors.As(err, &missing) {
		t.Fatalf("Expected *MissingArchiveError, got %T", err)
	}
	if len(missing.Paths) != 1 || filepath.Base(missing.Paths[0]) != DefaultLinkArchive {
		t.Errorf("Expected only the link archive missing, got %v", missing.Paths)
	}
}

func TestCreateEnvironmentLegacyReportsEveryMissingArchive(t *testing.T) {
	home := filepath.Join(t.TempDir(), "NetLogo 5.3.1")
	touch(t, filepath.Join(home, "NetLogo.jar"))
	touch(t, filepath.Join(home, "lib", "scala-library.jar"))

	_, err := CreateEnvironmentFromHome(home, "")
	var missing *MissingArchiveError
	if !errors.As(err, &missing) {
		t.Fatalf("Expected *MissingArchiveError, got %v", err)
	}
	// every fixed archive except the two present, plus the link archive
	if want := len(legacyArchives) - 2 + 1; len(missing.Paths) != want {
		t.Errorf("Expected %d missing archives, got %d: %v", want, len(missing.Paths), missing.Paths)
	}
	for _, p := range missing.Paths {
		if strings.HasSuffix(p, "scala-library.jar") || strings.HasSuffix(p, "NetLogo.jar") {
			t.Errorf("Present archive reported missing: %s", p)
		}
	}
}

func TestCreateEnvironmentLegacy(t *testing.T) {
	home := filepath.Join(t.TempDir(), "NetLogo 5.3.1")
	for _, rel := range legacyArchives {
		touch(t, filepath.Join(home, filepath.FromSlash(rel)))
	}
	touch(t, filepath.Join(home, DefaultLinkArchive))
	touch(t, filepath.Join(home, "jre", "bin", javaExe()))

	env, err := CreateEnvironmentFromHome(home, "")
	if err != nil {
		t.Fatalf("CreateEnvironment failed: %v", err)
	}
	if env.Layout != LayoutLegacy {
		t.Errorf("Expected legacy layout, got %s", env.Layout)
	}
	if env.Archives[0] != filepath.Join(home, "NetLogo.jar") {
		t.Errorf("Expected NetLogo.jar first, got %s", env.Archives[0])
	}
	if len(env.Archives) != len(legacyArchives)+1 {
		t.Errorf("Expected %d archives, got %d", len(legacyArchives)+1, len(env.Archives))
	}
	if env.NativePath != filepath.Join(home, "lib") {
		t.Errorf("Unexpected native path %s", env.NativePath)
	}
	if env.JavaPath != filepath.Join(home, "jre", "bin", javaExe()) {
		t.Errorf("Expected bundled jre, got %s", env.JavaPath)
	}
	if env.NetLogoVersion.String() != "5.3.1" {
		t.Errorf("Expected version from home name, got %s", env.NetLogoVersion.String())
	}
}

func TestCreateEnvironmentJavaHome(t *testing.T) {
	home := modernHome(t)
	touch(t, filepath.Join(home, DefaultLinkArchive))
	if err := os.Remove(filepath.Join(home, "runtime", "bin", javaExe())); err != nil {
		t.Fatal(err)
	}
	javaHome := t.TempDir()
	touch(t, filepath.Join(javaHome, "bin", javaExe()))

	env, err := CreateEnvironment(EnvironmentOptions{Home: home, JavaHome: javaHome})
	if err != nil {
		t.Fatalf("CreateEnvironment failed: %v", err)
	}
	if env.JavaPath != filepath.Join(javaHome, "bin", javaExe()) {
		t.Errorf("Expected java from JavaHome, got %s", env.JavaPath)
	}
}

func TestCreateEnvironmentFromSystem(t *testing.T) {
	t.Setenv("NETLOGO_HOME", "")
	if _, err := CreateEnvironmentFromSystem(); err == nil {
		t.Error("Expected an error without NETLOGO_HOME")
	}

	home := modernHome(t)
	link := filepath.Join(t.TempDir(), "netlogolink.jar")
	touch(t, link)
	t.Setenv("NETLOGO_HOME", home)
	t.Setenv("NETLOGOLINK_JAR", link)

	env, err := CreateEnvironmentFromSystem()
	if err != nil {
		t.Fatalf("CreateEnvironmentFromSystem failed: %v", err)
	}
	if env.LinkArchive != link {
		t.Errorf("Expected NETLOGOLINK_JAR to be honoured, got %s", env.LinkArchive)
	}
}

func TestJavaLauncherArgs(t *testing.T) {
	home := modernHome(t)
	touch(t, filepath.Join(home, DefaultLinkArchive))
	env, err := CreateEnvironmentFromHome(home, "")
	if err != nil {
		t.Fatal(err)
	}

	l := &JavaLauncher{Env: env, JVMOptions: []string{"-Dfoo=bar"}}
	args := l.Args()
	want := []string{
		"-Xmx" + DefaultMaxHeap,
		"-Djava.library.path=" + env.NativePath,
		"-Duser.dir=" + home,
		"-Djava.awt.headless=true",
		"-classpath", env.ClassPath(),
		"-Dfoo=bar",
		DefaultMainClass,
	}
	if !reflect.DeepEqual(args, want) {
		t.Errorf("Args = %v\nwant %v", args, want)
	}

	l = &JavaLauncher{Env: env, GUI: true, MaxHeap: "4g", MainClass: "example.Main"}
	args = l.Args()
	for _, a := range args {
		if a == "-Djava.awt.headless=true" {
			t.Error("GUI launcher must not force headless mode")
		}
	}
	if args[0] != "-Xmx4g" || args[len(args)-1] != "example.Main" {
		t.Errorf("Unexpected args %v", args)
	}
}
