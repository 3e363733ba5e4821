// Package params models editable parameter trees.
//
// A tree is built from [Node] values: groups hold ordered children, leaves hold
// a float, int, bool or choice value. Every node is addressed among its
// siblings by its key plus an optional id, so two structurally identical groups
// (say two "pid" groups with ids "close" and "far") can coexist. Labels are
// descriptive only.
//
// The same node type serves three purposes:
//
//   - UI description: the full tree including labels, ranges and choices
//   - parameter values: a tree of the same shape carrying current values
//   - partial updates: a subtree that [Merge] overlays onto a full tree
//
// [Describe] and [Decode] convert between trees and Go structs annotated with
// `param` tags:
//
//	type Gains struct {
//		Kp float64 `param:"kp,label=Proportional gain,min=0,max=100,step=0.1"`
//	}
//
// Trees persist as YAML, XML or JSON; JSON input is validated against a schema
// generated from the description.
package params
