// Package conversation gates who answers a support conversation: the automated
// assistant (ai_active), a human agent (human_active) or nobody (closed).
package conversation
