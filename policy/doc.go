// Package policy evaluates the coaching insight rules, written in rego, with OPA.
package policy
