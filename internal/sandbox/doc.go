// Package sandbox implements the launcher: it constructs a new
// isolation domain from namespaces, cgroups, and a pivoted root
// filesystem, then execs the target command inside it.
//
// # Staging
//
// The launcher is a state machine spanning two processes. On a real
// kernel, unshare(CLONE_NEWUSER) requires the calling thread's process
// to be single-threaded, which a running Go program never is. So
// Stage U (enter user namespace) and Stage N (enter the other
// namespaces) are not performed in-process; instead Run re-execs
// /proc/self/exe with every namespace flag set on SysProcAttr.Cloneflags
// at once, and the identity maps carried on UidMappings/GidMappings.
// The single clone(2) call the Go runtime issues to start that child
// is Stage F: the re-exec'd process comes up already namespaced and
// already is PID 1 in the new PID namespace, with no separate fork
// needed or possible from Go for this purpose.
//
// Configuration crosses from outer to inner over a socket pair rather
// than argv or env, since neither survives the re-exec cleanly once
// namespaces are involved. Init, called by main at startup, checks
// for the re-exec marker argv[1] and runs Stage C onward when found;
// a normal CLI invocation returns immediately.
package sandbox
