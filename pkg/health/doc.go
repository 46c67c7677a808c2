/*
Package health provides HTTP and TCP readiness checks for the managed
daemons.

ForAgent builds a two-stage checker: a TCP dial proves the listener is up,
then the HTTP health endpoint proves the agent answers. Wait polls a
checker until it reports healthy or a deadline passes, replacing the fixed
post-start sleep a provisioning script would use.
*/
package health
