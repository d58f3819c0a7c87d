// Package textutil provides small text helpers shared by the naming and
// reporting code: filesystem-safe path segments and human-readable labels.
package textutil
