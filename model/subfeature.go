// Subfeature fitting: a join-graph edge nested below a peripheral table
// fits its own inner model per branch and contributes its per-tree
// outputs back as new numerical columns of that peripheral, so the outer
// candidate search sees them as ordinary attributes.
//
// A nested peripheral table never carries its own label, so the inner
// sub-problem's target is synthesized by mapping the outer residual down
// through the parent edge's matches: each row of the table gets the mean
// residual of every row that matched it.
package model

import (
	"strconv"

	"go.uber.org/zap"

	"github.com/sqlnet/relboost/dataframe"
	"github.com/sqlnet/relboost/errs"
	"github.com/sqlnet/relboost/placeholder"
	"github.com/sqlnet/relboost/types"
	"github.com/sqlnet/relboost/config"
)

// SubfeatureModel is one child (nested) placeholder edge's fitted inner
// Model, persisted alongside the outer EdgeModel so Transform can replay
// it against new data.
type SubfeatureModel struct {
	ChildIndex   int
	ColumnPrefix string
	Inner        *Model
}

const pseudoTargetColumn = "__subfeature_target__"

// copySubtree recursively copies every descendant of srcIdx (not srcIdx
// itself, already added by the caller as dstParent) from src into dst,
// preserving arbitrarily deep placeholder nesting instead of truncating
// after one level.
func copySubtree(src *placeholder.Placeholder, srcIdx int, dst *placeholder.Placeholder, dstParent int) error {
	for _, childIdx := range src.Node(srcIdx).Children() {
		child := src.Node(childIdx)
		dstIdx, err := dst.AddChild(dstParent, *child)
		if err != nil {
			return errs.Trace(err)
		}
		if err := copySubtree(src, childIdx, dst, dstIdx); err != nil {
			return err
		}
	}
	return nil
}

// fitSubfeatures recursively fits one inner Model per child edge of
// parentIdx, using table as the pseudo population (augmented with a
// synthetic target derived from residual) and the child's own declared
// peripheral as the inner problem's peripheral. It returns table
// augmented with one new RoleNumerical column per inner tree, plus the
// fitted SubfeatureModels needed to replay the same augmentation at
// transform time.
func fitSubfeatures(table *dataframe.DataFrame, resolve Resolver, ph *placeholder.Placeholder, parentIdx int, residual []float64, hp config.Hyperparams, encoding *types.Encoding, log *zap.Logger) (*dataframe.DataFrame, []SubfeatureModel, error) {
	parent := ph.Node(parentIdx)
	children := parent.Children()
	if len(children) == 0 {
		return table, nil, nil
	}

	pseudoPop, err := withColumn(table, types.NewFloatColumn(pseudoTargetColumn, "", residual), dataframe.RoleTarget)
	if err != nil {
		return nil, nil, err
	}

	var extraCols []types.Column
	var subs []SubfeatureModel
	for _, childIdx := range children {
		child := ph.Node(childIdx)

		innerPh := placeholder.New(pseudoPop.Name())
		innerRoot := innerPh.AddRoot(placeholder.Edge{
			Peripheral:         child.Peripheral,
			JoinKeys:           child.JoinKeys,
			TimeStamp:          child.TimeStamp,
			Memory:             child.Memory,
			Horizon:            child.Horizon,
			Relationship:       child.Relationship,
			AllowLaggedTargets: child.AllowLaggedTargets,
		})
		if err := copySubtree(ph, childIdx, innerPh, innerRoot); err != nil {
			return nil, nil, err
		}

		innerHP := hp
		if innerHP.NumSubfeatures > 3 {
			innerHP.NumSubfeatures = 3 // cap nested-level tree count so deep graphs don't fan out
		}

		inner, err := Fit(pseudoPop, resolve, innerPh, innerHP, encoding)
		if err != nil {
			return nil, nil, err
		}
		log.Info("subfeature fitted", zap.Int("child_index", childIdx), zap.String("table", table.Name()))

		fm, err := Transform(inner, table, resolve)
		if err != nil {
			return nil, nil, err
		}

		prefix := "subfeature#" + strconv.Itoa(childIdx)
		for t, col := range fm.Columns {
			extraCols = append(extraCols, types.NewFloatColumn(prefix+"#"+strconv.Itoa(t), "", col))
		}
		subs = append(subs, SubfeatureModel{ChildIndex: childIdx, ColumnPrefix: prefix, Inner: inner})
	}

	augmented, err := augmentNumerical(table, extraCols)
	if err != nil {
		return nil, nil, err
	}
	return augmented, subs, nil
}

// applySubfeatures replays already-fitted SubfeatureModels against table
// at transform time, reproducing the exact augmentation fitSubfeatures
// performed during Fit.
func applySubfeatures(table *dataframe.DataFrame, subs []SubfeatureModel, resolve Resolver) (*dataframe.DataFrame, error) {
	if len(subs) == 0 {
		return table, nil
	}
	var extraCols []types.Column
	for _, sub := range subs {
		fm, err := Transform(sub.Inner, table, resolve)
		if err != nil {
			return nil, err
		}
		for t, col := range fm.Columns {
			extraCols = append(extraCols, types.NewFloatColumn(sub.ColumnPrefix+"#"+strconv.Itoa(t), "", col))
		}
	}
	return augmentNumerical(table, extraCols)
}

// withColumn returns a copy of df with col appended under role. Used to
// attach the synthetic subfeature target before recursively calling Fit.
func withColumn(df *dataframe.DataFrame, col types.Column, role dataframe.Role) (*dataframe.DataFrame, error) {
	cols, schema := copySchema(df)
	cols = append(cols, col)
	schema[col.Name()] = role
	return dataframe.New(df.Name(), cols, schema)
}

// augmentNumerical returns a copy of df with extra appended as
// RoleNumerical columns, the mechanism both fitSubfeatures and
// applySubfeatures use to hand the outer candidate search new attributes
// without ever mutating the original DataFrame.
func augmentNumerical(df *dataframe.DataFrame, extra []types.Column) (*dataframe.DataFrame, error) {
	if len(extra) == 0 {
		return df, nil
	}
	cols, schema := copySchema(df)
	for _, c := range extra {
		cols = append(cols, c)
		schema[c.Name()] = dataframe.RoleNumerical
	}
	return dataframe.New(df.Name(), cols, schema)
}

func copySchema(df *dataframe.DataFrame) ([]types.Column, dataframe.Schema) {
	schema := dataframe.Schema{}
	var cols []types.Column
	add := func(names []string, role dataframe.Role) {
		for _, name := range names {
			c, ok := df.Column(name)
			if !ok {
				continue
			}
			cols = append(cols, c)
			schema[name] = role
		}
	}
	add(df.JoinKeys(), dataframe.RoleJoinKey)
	if ts, ok := df.TimeStamp(); ok {
		add([]string{ts}, dataframe.RoleTimeStamp)
	}
	add(df.Targets(), dataframe.RoleTarget)
	add(df.Numerical(), dataframe.RoleNumerical)
	add(df.Categorical(), dataframe.RoleCategorical)
	add(df.Discrete(), dataframe.RoleDiscrete)
	add(df.Text(), dataframe.RoleText)
	return cols, schema
}
