package behavior

import bt "github.com/joeycumines/go-behaviortree"

// leaf wraps a predicate as a tree node: true is Success, false is Failure.
func leaf(fn func() bool) bt.Node {
	return bt.New(func([]bt.Node) (bt.Status, error) {
		if fn() {
			return bt.Success, nil
		}
		return bt.Failure, nil
	})
}

// rule runs act when cond holds. A false act lets lower priorities run.
func rule(cond, act func() bool) bt.Node {
	return bt.New(bt.Sequence, leaf(cond), leaf(act))
}

// priority tries rules in order and stops at the first that acts.
func priority(rules ...bt.Node) bt.Node {
	return bt.New(bt.Selector, rules...)
}
