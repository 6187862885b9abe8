// Package process defines the schedulable unit of work of a simulation and
// the built-in process types.
//
// # Time-step negotiation
//
// Every process embeds a Listener. A process either declares its step size
// in the model (`time_step`) or is adjustable. During scheduler
// initialisation the processes that write or read a symbol announce their
// step to the processes on the other side of that symbol; adjustable
// listeners adopt the finest step they hear about and pass it on. Plain
// listeners only pass a step on in the direction it came from. Reporters
// collect the finest source and sink steps separately and settle on the
// coarser of the two.
//
// # Categories
//
// The scheduler distinguishes processes by Category, a closed set of
// variants: Continuous (phase I, ranked), Instantaneous and Reporter
// (phase II, topologically ordered) and Analysis (phase III).
package process
