// Package netlogolink drives the NetLogo agent-based simulation engine from
// Go. The engine runs inside a Java virtual machine that this package starts
// as a child process; Go talks to a small link program inside that JVM.
//
// # Architecture Overview
//
// The JVM is the managed runtime. It is started at most once per process and
// is never restarted: the first Initialize launches it, every later
// Initialize attaches to it. Each Initialize opens its own engine workspace
// (a Link) inside the shared runtime.
//
// Go and the link program exchange MessagePack frames, each prefixed with a
// 4-byte big-endian length, over the JVM's stdin and stdout. Requests carry
// an ID and the runtime's message loop routes each response back to the
// caller waiting on that ID. The JVM's stderr is forwarded to the logger.
//
// # Environment
//
// An Environment describes the engine installation: its home directory, the
// complete class path, the native library directory and a JVM. Every
// required archive is checked up front; a missing one is a
// MissingArchiveError before any process starts.
//
//	env, err := netlogolink.CreateEnvironmentFromHome("/opt/NetLogo 6.4.0", "")
//	env, err := netlogolink.CreateEnvironmentFromSystem() // NETLOGO_HOME
//
// The JVM runs with its working directory and user.dir set to the engine
// home, because the engine locates native resources relative to it. The
// host process keeps its own working directory, so relative model paths
// are best made absolute before LoadModel.
//
// # Operations
//
//	link, err := netlogolink.Initialize(ctx, env, netlogolink.Options{})
//	err = link.LoadModel(ctx, "/models/Wolf Sheep Predation.nlogo")
//	err = link.Command(ctx, "setup")
//	v, err := link.Query(ctx, "count sheep")
//	n, _ := v.Int()
//	err = link.Release(ctx) // the JVM keeps running
//
// # Results
//
// Query returns a Value whose Kind is fixed by the type tag the engine
// reports: Boolean, String, Integer, Double, and the list forms BoolList,
// StringList, IntegerList and DoubleList. Engine booleans are integers
// where 1 means true. Any other tag, such as agentsets or extension types,
// fails with an UnsupportedResultTypeError naming the tag.
//
// # Errors
//
// Engine exceptions are translated into ModelLoadError and SimulationError,
// matched with errors.Is against ErrModelLoad and ErrSimulation. Each keeps
// the engine's message verbatim and unwraps to the EngineException. See
// Link for which operation translates which exception classes.
package netlogolink
