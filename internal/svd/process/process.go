// Package process implements stage C of the pipeline (4.3): converting
// each UNPROCESSED element node into its *model.T payload once it
// becomes ELIGIBLE (4.6) — merging attributes from a DERIVE base when
// one exists, replicating the base's descendant subtree, expanding
// dim/dimIncrement/dimIndex templates into concrete siblings, and
// normalizing a field's bit-range encoding. Grounded on
// original_source's process.py (_process_peripheral/_cluster/
// _register/_field, _process_dim, _process_field_msb_lsb), adapted
// from that engine's or_if_none merge style to this module's
// base-is-already-PROCESSED graph discipline.
package process

import (
	"fmt"
	"sort"
	"strings"

	svdmodel "github.com/sarchlab/svdmodel"
	"github.com/sarchlab/svdmodel/internal/svd/diag"
	"github.com/sarchlab/svdmodel/internal/svd/dim"
	"github.com/sarchlab/svdmodel/internal/svd/enumval"
	"github.com/sarchlab/svdmodel/internal/svd/graph"
	"github.com/sarchlab/svdmodel/internal/svd/ident"
	"github.com/sarchlab/svdmodel/internal/svd/model"
	"github.com/sarchlab/svdmodel/internal/svd/numlit"
	"github.com/sarchlab/svdmodel/internal/svd/record"
)

// RunEligible processes every currently-ELIGIBLE node: UNPROCESSED,
// reachable from an already-PROCESSED ancestor, and not blocked by a
// PLACEHOLDER in-edge anywhere on the path down to it (4.6). It
// returns whether any node was processed this round.
func RunEligible(g *graph.Graph, sink diag.Warner) (bool, error) {
	eligible := eligibleNodes(g)
	if len(eligible) == 0 {
		return false, nil
	}
	order := topologicalOrder(g, eligible)
	for _, n := range order {
		if err := processNode(g, n, sink); err != nil {
			return true, err
		}
	}
	return true, nil
}

// eligibleNodes gathers the whole reachable subtree rooted at every
// "unprocessed root" (an UNPROCESSED node with an incoming
// CHILD_RESOLVED edge), stopping the descent at any node blocked by an
// incoming PLACEHOLDER edge. It deliberately does not stop at
// CHILD_UNRESOLVED edges within that subtree: the node itself and its
// descendants are all collected together, and ordering between them is
// left to topologicalOrder (process.py's _find_processable_nodes plus
// lexicographical_topological_sort).
func eligibleNodes(g *graph.Graph) []*graph.Node {
	var roots []*graph.Node
	for _, n := range g.AllNodes() {
		if n.Kind == graph.NodeElement && n.Status == graph.Unprocessed && g.HasIncoming(n.ID, graph.ChildResolved) {
			roots = append(roots, n)
		}
	}

	visited := map[ident.ID]bool{}
	var result []*graph.Node
	stack := append([]*graph.Node{}, roots...)
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited[n.ID] {
			continue
		}
		visited[n.ID] = true
		if g.HasIncoming(n.ID, graph.PlaceholderEdge) {
			continue
		}
		result = append(result, n)
		for _, cid := range g.StructuralChildren(n.ID) {
			if c := g.Node(cid); c != nil && c.Status == graph.Unprocessed {
				stack = append(stack, c)
			}
		}
	}
	return result
}

// topologicalOrder returns nodes in an order consistent with every
// structural (CHILD_UNRESOLVED/CHILD_RESOLVED) and DERIVE edge between
// two nodes both in the set (so a parent processes before its own
// still-unprocessed child, and a DERIVE base processes before its
// derived consumer), breaking ties lexicographically by ID string.
func topologicalOrder(g *graph.Graph, nodes []*graph.Node) []*graph.Node {
	set := make(map[ident.ID]*graph.Node, len(nodes))
	for _, n := range nodes {
		set[n.ID] = n
	}

	indegree := make(map[ident.ID]int, len(nodes))
	dependents := make(map[ident.ID][]ident.ID, len(nodes))
	for _, n := range nodes {
		indegree[n.ID] = 0
	}
	for _, n := range nodes {
		for _, e := range g.InEdges(n.ID) {
			if _, ok := set[e.From]; ok && e.From != n.ID {
				indegree[n.ID]++
				dependents[e.From] = append(dependents[e.From], n.ID)
			}
		}
	}

	var ready []*graph.Node
	for _, n := range nodes {
		if indegree[n.ID] == 0 {
			ready = append(ready, n)
		}
	}

	var order []*graph.Node
	for len(ready) > 0 {
		sort.Slice(ready, func(i, j int) bool { return ready[i].ID.String() < ready[j].ID.String() })
		n := ready[0]
		ready = ready[1:]
		order = append(order, n)
		for _, depID := range dependents[n.ID] {
			indegree[depID]--
			if indegree[depID] == 0 {
				ready = append(ready, set[depID])
			}
		}
	}
	return order
}

func processNode(g *graph.Graph, n *graph.Node, sink diag.Warner) error {
	switch n.Level {
	case graph.LevelPeripheral:
		return processPeripheral(g, n, sink)
	case graph.LevelCluster:
		return processCluster(g, n, sink)
	case graph.LevelRegister:
		return processRegister(g, n, sink)
	case graph.LevelField:
		return processField(g, n, sink)
	case graph.LevelEnumContainer:
		return processEnumContainer(g, n, sink)
	default:
		return fmt.Errorf("process: node %s has unexpected level %v", n.ID, n.Level)
	}
}

// replicateDescendants gives n its own deep copy of base's structural
// subtree (4.3 item 2), skipping any name already present among n's
// own pre-existing children so that n's explicitly-declared children
// override the replicated ones.
func replicateDescendants(g *graph.Graph, base, n *graph.Node) {
	if base == nil {
		return
	}
	existing := map[string]bool{}
	for _, cid := range g.StructuralChildren(n.ID) {
		if c := g.Node(cid); c != nil {
			existing[c.Name] = true
		}
	}
	for _, cid := range g.StructuralChildren(base.ID) {
		c := g.Node(cid)
		if c == nil || existing[c.Name] {
			continue
		}
		cloneSubtree(g, c, n.ID)
	}
}

// cloneSubtree deep-copies src (and everything beneath it) as a fresh
// node attached to newParent. Dim expansion (4.3 item 3) and
// derivedFrom replication (4.3 item 2) both need an independent copy
// of a subtree rather than a shared one, so both go through this
// helper; a cloned node is always attached with a CHILD_RESOLVED edge
// since both call sites are copying out of an already-structurally-
// settled source subtree. Every clone starts UNPROCESSED and is
// converted from its own record in a later round. Concrete dim
// instances carry no record and are not cloned (the zero ID is
// returned): the cloned template expands into its own instances.
func cloneSubtree(g *graph.Graph, src *graph.Node, newParent ident.ID) ident.ID {
	if src.Record == nil {
		return ident.Zero
	}
	clone := &graph.Node{
		ID:     ident.New(),
		Kind:   src.Kind,
		Status: graph.Unprocessed,
		Level:  src.Level,
		Name:   src.Name,
		Parent: newParent,
		Record: src.Record,
	}
	g.AddNode(clone)
	_ = g.AddEdge(graph.Edge{From: newParent, To: clone.ID, Kind: graph.ChildResolved})
	for _, cid := range g.StructuralChildren(src.ID) {
		if c := g.Node(cid); c != nil {
			cloneSubtree(g, c, clone.ID)
		}
	}
	return clone.ID
}

// expandDimOrFinalize is the shared dim-expansion driver behind every
// level's processNode function (4.3 item 3). build constructs the
// level-specific *model.T payload for a concrete name and dim instance
// index (-1 for the template's own, never-emitted placeholder value).
func expandDimOrFinalize(
	g *graph.Graph,
	n *graph.Node,
	name string,
	dimCount *int,
	dimIncrement *int64,
	dimIndex []string,
	forField, forPeripheral bool,
	sink diag.Warner,
	build func(name string, instance int) interface{},
) error {
	path := g.Path(n.ID)

	plan, err := dim.Build(name, dimCount, dimIncrement, dimIndex, forField, forPeripheral)
	if err != nil {
		return svdmodel.NewError(diag.KindDimTemplateError, path, err)
	}

	if plan == nil {
		if dimCount != nil {
			sink.Warnf(diag.KindDimMarkerMissing, path, "dim=%d set but name %q has no %%s/[%%s] marker; treated as non-dim", *dimCount, name)
		}
		g.MarkProcessed(n.ID, build(name, -1))
		return nil
	}

	n.IsDimTemplate = true
	for i := 0; i < plan.Dim; i++ {
		instName := plan.InstanceName(i)
		inst := &graph.Node{
			ID:     ident.New(),
			Kind:   graph.NodeElement,
			Status: graph.Processed,
			Level:  n.Level,
			Name:   instName,
			Parent: n.Parent,
		}
		inst.Processed = build(instName, i)
		g.AddNode(inst)
		_ = g.AddEdge(graph.Edge{From: n.Parent, To: inst.ID, Kind: graph.ChildResolved})
		for _, cid := range g.StructuralChildren(n.ID) {
			if c := g.Node(cid); c != nil {
				cloneSubtree(g, c, inst.ID)
			}
		}
	}

	g.MarkProcessed(n.ID, build(name, -1))
	return nil
}

// --- scalar attribute helpers -------------------------------------------

func strv(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func strOr(p *string, fallback string) string {
	if p != nil {
		return *p
	}
	return fallback
}

func parseAccess(s string) (model.Access, error) {
	switch s {
	case "read-only":
		return model.AccessReadOnly, nil
	case "write-only":
		return model.AccessWriteOnly, nil
	case "read-write":
		return model.AccessReadWrite, nil
	case "writeOnce":
		return model.AccessWriteOnce, nil
	case "read-writeOnce":
		return model.AccessReadWriteOnce, nil
	default:
		return model.AccessUnspecified, fmt.Errorf("process: unrecognized access %q", s)
	}
}

func parseProtection(s string) (model.Protection, error) {
	switch s {
	case "s":
		return model.ProtectionSecure, nil
	case "n":
		return model.ProtectionNonSecure, nil
	case "p":
		return model.ProtectionPrivileged, nil
	default:
		return model.ProtectionUnspecified, fmt.Errorf("process: unrecognized protection %q", s)
	}
}

func parseModifiedWriteValues(s string) (model.ModifiedWriteValues, error) {
	switch s {
	case "oneToClear":
		return model.ModifiedWriteValuesOneToClear, nil
	case "oneToSet":
		return model.ModifiedWriteValuesOneToSet, nil
	case "oneToToggle":
		return model.ModifiedWriteValuesOneToToggle, nil
	case "zeroToClear":
		return model.ModifiedWriteValuesZeroToClear, nil
	case "zeroToSet":
		return model.ModifiedWriteValuesZeroToSet, nil
	case "zeroToToggle":
		return model.ModifiedWriteValuesZeroToToggle, nil
	case "clear":
		return model.ModifiedWriteValuesClear, nil
	case "set":
		return model.ModifiedWriteValuesSet, nil
	case "modify":
		return model.ModifiedWriteValuesModify, nil
	default:
		return model.ModifiedWriteValuesUnspecified, fmt.Errorf("process: unrecognized modifiedWriteValues %q", s)
	}
}

func parseReadAction(s string) (model.ReadAction, error) {
	switch s {
	case "clear":
		return model.ReadActionClear, nil
	case "set":
		return model.ReadActionSet, nil
	case "modify":
		return model.ReadActionModify, nil
	case "modifyExternal":
		return model.ReadActionModifyExternal, nil
	default:
		return model.ReadActionUnspecified, fmt.Errorf("process: unrecognized readAction %q", s)
	}
}

func parseUsage(s string) (model.Usage, error) {
	switch s {
	case "read":
		return model.UsageRead, nil
	case "write":
		return model.UsageWrite, nil
	case "read-write":
		return model.UsageReadWrite, nil
	default:
		return model.UsageUnspecified, fmt.Errorf("process: unrecognized usage %q", s)
	}
}

func mergeRegisterProperties(raw record.RegisterPropertyGroup, base *model.RegisterProperties) (model.RegisterProperties, error) {
	var out model.RegisterProperties
	if raw.Size != nil {
		v, err := numlit.ParseInt(*raw.Size)
		if err != nil {
			return out, fmt.Errorf("size: %w", err)
		}
		u := uint32(v)
		out.Size = &u
	} else if base != nil {
		out.Size = base.Size
	}
	if raw.Access != nil {
		a, err := parseAccess(*raw.Access)
		if err != nil {
			return out, err
		}
		out.Access = a
	} else if base != nil {
		out.Access = base.Access
	}
	if raw.Protection != nil {
		p, err := parseProtection(*raw.Protection)
		if err != nil {
			return out, err
		}
		out.Protection = p
	} else if base != nil {
		out.Protection = base.Protection
	}
	if raw.ResetValue != nil {
		v, err := numlit.ParseInt(*raw.ResetValue)
		if err != nil {
			return out, fmt.Errorf("resetValue: %w", err)
		}
		u := uint64(v)
		out.ResetValue = &u
	} else if base != nil {
		out.ResetValue = base.ResetValue
	}
	if raw.ResetMask != nil {
		v, err := numlit.ParseInt(*raw.ResetMask)
		if err != nil {
			return out, fmt.Errorf("resetMask: %w", err)
		}
		u := uint64(v)
		out.ResetMask = &u
	} else if base != nil {
		out.ResetMask = base.ResetMask
	}
	return out, nil
}

func mergeDim(raw record.DimGroup, base *model.DimElement) (model.DimElement, error) {
	var out model.DimElement
	if raw.Dim != nil {
		v, err := numlit.ParseInt(*raw.Dim)
		if err != nil {
			return out, fmt.Errorf("dim: %w", err)
		}
		n := int(v)
		out.Dim = &n
	} else if base != nil {
		out.Dim = base.Dim
	}
	if raw.DimIncrement != nil {
		v, err := numlit.ParseInt(*raw.DimIncrement)
		if err != nil {
			return out, fmt.Errorf("dimIncrement: %w", err)
		}
		out.DimIncrement = &v
	} else if base != nil {
		out.DimIncrement = base.DimIncrement
	}
	if raw.DimIndex != nil {
		idx, err := dim.ParseDimIndex(*raw.DimIndex)
		if err != nil {
			return out, err
		}
		out.DimIndex = idx
	} else if base != nil {
		out.DimIndex = base.DimIndex
	}
	if raw.DimName != nil {
		out.DimName = raw.DimName
	} else if base != nil {
		out.DimName = base.DimName
	}
	// dimArrayIndex is never inherited from a derivedFrom base: each
	// dim-expanded element redeclares its own enumerated naming, if any
	// (SPEC_FULL §4 supplemented feature).
	out.DimArrayIndex = raw.DimArrayIndex
	return out, nil
}

func baseOf(g *graph.Graph, n *graph.Node) *graph.Node {
	id := g.DeriveBase(n.ID)
	if id.IsZero() {
		return nil
	}
	return g.Node(id)
}

// --- per-level processing ------------------------------------------------

func processPeripheral(g *graph.Graph, n *graph.Node, sink diag.Warner) error {
	rec := n.Record.(*record.Peripheral)
	path := g.Path(n.ID)

	baseNode := baseOf(g, n)
	var base *model.Peripheral
	if baseNode != nil {
		base, _ = baseNode.Processed.(*model.Peripheral)
		replicateDescendants(g, baseNode, n)
	}

	props, err := mergeRegisterProperties(rec.Properties, propsOfPeripheral(base))
	if err != nil {
		return svdmodel.NewError(diag.KindParseMissingElement, path, err)
	}

	baseAddrRaw := strv(rec.BaseAddress)
	var baseAddress uint64
	if baseAddrRaw != "" {
		v, err := numlit.ParseInt(baseAddrRaw)
		if err != nil {
			return svdmodel.NewError(diag.KindParseMissingElement, path, err)
		}
		baseAddress = uint64(v)
	} else if base != nil {
		baseAddress = base.BaseAddress
	}

	var blocks []*model.AddressBlock
	if len(rec.AddressBlocks) > 0 {
		for _, ab := range rec.AddressBlocks {
			mb, err := convertAddressBlock(ab, props.Protection, path, sink)
			if err != nil {
				return svdmodel.NewError(diag.KindParseMissingElement, path, err)
			}
			blocks = append(blocks, mb)
		}
	} else if base != nil {
		blocks = base.AddressBlocks
	}

	var interrupts []*model.Interrupt
	for _, ir := range rec.Interrupts {
		v, err := numlit.ParseInt(strv(ir.Value))
		if err != nil {
			return svdmodel.NewError(diag.KindParseMissingElement, path, err)
		}
		interrupts = append(interrupts, &model.Interrupt{
			Name:        ir.Name,
			Description: strv(ir.Description),
			Value:       int(v),
		})
	}
	if len(interrupts) == 0 && base != nil {
		interrupts = base.Interrupts
	}

	dimGroup, err := mergeDim(rec.Dim, dimOfPeripheral(base))
	if err != nil {
		return svdmodel.NewError(diag.KindDimTemplateError, path, err)
	}

	// headerStructName is never inherited from a derivedFrom base
	// (SPEC_FULL §4 supplemented feature): each peripheral instance
	// redeclares its own generated type name, if any.
	headerStructName := strv(rec.HeaderStructName)

	alternatePeripheral := strOr(rec.AlternatePeripheral, baseStr(base, func(b *model.Peripheral) string { return b.AlternatePeripheral }))
	groupName := strOr(rec.GroupName, baseStr(base, func(b *model.Peripheral) string { return b.GroupName }))
	prepend := strOr(rec.PrependToName, baseStr(base, func(b *model.Peripheral) string { return b.PrependToName }))
	appendTo := strOr(rec.AppendToName, baseStr(base, func(b *model.Peripheral) string { return b.AppendToName }))
	disableCond := strOr(rec.DisableCondition, baseStr(base, func(b *model.Peripheral) string { return b.DisableCondition }))
	version := strOr(rec.Version, baseStr(base, func(b *model.Peripheral) string { return b.Version }))
	description := strOr(rec.Description, baseStr(base, func(b *model.Peripheral) string { return b.Description }))

	build := func(name string, instance int) interface{} {
		addr := baseAddress
		if instance >= 0 && dimGroup.DimIncrement != nil {
			addr = baseAddress + uint64(int64(instance)*(*dimGroup.DimIncrement))
		}
		return &model.Peripheral{
			Name:                name,
			Version:             version,
			Description:         description,
			GroupName:           groupName,
			PrependToName:       prepend,
			AppendToName:        appendTo,
			DisableCondition:    disableCond,
			BaseAddress:         addr,
			Properties:          props,
			AddressBlocks:       blocks,
			Interrupts:          interrupts,
			AlternatePeripheral: alternatePeripheral,
			HeaderStructName:    headerStructName,
			Dim:                 dimGroup,
		}
	}

	return expandDimOrFinalize(g, n, rec.Name, dimGroup.Dim, dimGroup.DimIncrement, dimGroup.DimIndex, false, true, sink, build)
}

func processCluster(g *graph.Graph, n *graph.Node, sink diag.Warner) error {
	rec := n.Record.(*record.Cluster)
	path := g.Path(n.ID)

	baseNode := baseOf(g, n)
	var base *model.Cluster
	if baseNode != nil {
		base, _ = baseNode.Processed.(*model.Cluster)
		replicateDescendants(g, baseNode, n)
	}

	props, err := mergeRegisterProperties(rec.Properties, propsOfCluster(base))
	if err != nil {
		return svdmodel.NewError(diag.KindParseMissingElement, path, err)
	}

	var offset int64
	if rec.AddressOffset != nil {
		v, err := numlit.ParseInt(*rec.AddressOffset)
		if err != nil {
			return svdmodel.NewError(diag.KindParseMissingElement, path, err)
		}
		offset = v
	} else if base != nil {
		offset = int64(base.AddressOffset)
	}

	dimGroup, err := mergeDim(rec.Dim, dimOfCluster(base))
	if err != nil {
		return svdmodel.NewError(diag.KindDimTemplateError, path, err)
	}

	headerStructName := strOr(rec.HeaderStructName, baseStr(base, func(b *model.Cluster) string { return b.HeaderStructName }))
	alternateCluster := strOr(rec.AlternateCluster, baseStr(base, func(b *model.Cluster) string { return b.AlternateCluster }))
	description := strOr(rec.Description, baseStr(base, func(b *model.Cluster) string { return b.Description }))

	build := func(name string, instance int) interface{} {
		addr := offset
		if instance >= 0 && dimGroup.DimIncrement != nil {
			addr = offset + int64(instance)*(*dimGroup.DimIncrement)
		}
		return &model.Cluster{
			Name:             name,
			Description:      description,
			AddressOffset:    uint64(addr),
			Properties:       props,
			AlternateCluster: alternateCluster,
			HeaderStructName: headerStructName,
			Dim:              dimGroup,
		}
	}

	return expandDimOrFinalize(g, n, rec.Name, dimGroup.Dim, dimGroup.DimIncrement, dimGroup.DimIndex, false, false, sink, build)
}

func processRegister(g *graph.Graph, n *graph.Node, sink diag.Warner) error {
	rec := n.Record.(*record.Register)
	path := g.Path(n.ID)

	baseNode := baseOf(g, n)
	var base *model.Register
	if baseNode != nil {
		base, _ = baseNode.Processed.(*model.Register)
		replicateDescendants(g, baseNode, n)
	}

	props, err := mergeRegisterProperties(rec.Properties, propsOfRegister(base))
	if err != nil {
		return svdmodel.NewError(diag.KindParseMissingElement, path, err)
	}

	var offset int64
	if rec.AddressOffset != nil {
		v, err := numlit.ParseInt(*rec.AddressOffset)
		if err != nil {
			return svdmodel.NewError(diag.KindParseMissingElement, path, err)
		}
		offset = v
	} else if base != nil {
		offset = int64(base.AddressOffset)
	}

	mwv := model.ModifiedWriteValuesUnspecified
	if rec.ModifiedWriteValues != nil {
		mwv, err = parseModifiedWriteValues(*rec.ModifiedWriteValues)
		if err != nil {
			return svdmodel.NewError(diag.KindParseMissingElement, path, err)
		}
	} else if base != nil {
		mwv = base.ModifiedWriteValues
	}

	ra := model.ReadActionUnspecified
	if rec.ReadAction != nil {
		ra, err = parseReadAction(*rec.ReadAction)
		if err != nil {
			return svdmodel.NewError(diag.KindParseMissingElement, path, err)
		}
	} else if base != nil {
		ra = base.ReadAction
	}

	var baseWC *model.WriteConstraint
	if base != nil {
		baseWC = base.WriteConstraint
	}
	wc, err := convertWriteConstraint(rec.WriteConstraint, 0, path, sink)
	if err != nil {
		return svdmodel.NewError(diag.KindParseMissingElement, path, err)
	}
	if wc == nil {
		wc = baseWC
	}

	dimGroup, err := mergeDim(rec.Dim, dimOfRegister(base))
	if err != nil {
		return svdmodel.NewError(diag.KindDimTemplateError, path, err)
	}

	displayName := strOr(rec.DisplayName, baseStr(base, func(b *model.Register) string { return b.DisplayName }))
	description := strOr(rec.Description, baseStr(base, func(b *model.Register) string { return b.Description }))
	alternateGroup := strOr(rec.AlternateGroup, baseStr(base, func(b *model.Register) string { return b.AlternateGroup }))
	alternateRegister := strOr(rec.AlternateRegister, baseStr(base, func(b *model.Register) string { return b.AlternateRegister }))
	dataType := strOr(rec.DataType, baseStr(base, func(b *model.Register) string { return b.DataType }))

	build := func(name string, instance int) interface{} {
		addr := offset
		if instance >= 0 && dimGroup.DimIncrement != nil {
			addr = offset + int64(instance)*(*dimGroup.DimIncrement)
		}
		return &model.Register{
			Name:                name,
			DisplayName:         displayName,
			Description:         description,
			AddressOffset:       uint64(addr),
			Properties:          props,
			AlternateGroup:      alternateGroup,
			AlternateRegister:   alternateRegister,
			DataType:            dataType,
			ModifiedWriteValues: mwv,
			WriteConstraint:     wc,
			ReadAction:          ra,
			Dim:                 dimGroup,
		}
	}

	return expandDimOrFinalize(g, n, rec.Name, dimGroup.Dim, dimGroup.DimIncrement, dimGroup.DimIndex, false, false, sink, build)
}

func processField(g *graph.Graph, n *graph.Node, sink diag.Warner) error {
	rec := n.Record.(*record.Field)
	path := g.Path(n.ID)

	baseNode := baseOf(g, n)
	var base *model.Field
	if baseNode != nil {
		base, _ = baseNode.Processed.(*model.Field)
		replicateDescendants(g, baseNode, n)
	}

	var baseLSB, baseMSB uint32
	basePresent := base != nil
	if base != nil {
		baseLSB, baseMSB = base.LSB, base.MSB
	}
	lsb, msb, err := resolveBitRange(rec, basePresent, baseLSB, baseMSB, path, sink)
	if err != nil {
		return svdmodel.NewError(diag.KindInvalidBitRange, path, err)
	}
	width := msb - lsb + 1

	access := model.AccessUnspecified
	if rec.Access != nil {
		access, err = parseAccess(*rec.Access)
		if err != nil {
			return svdmodel.NewError(diag.KindParseMissingElement, path, err)
		}
	} else if base != nil {
		access = base.Access
	}

	mwv := model.ModifiedWriteValuesUnspecified
	if rec.ModifiedWriteValues != nil {
		mwv, err = parseModifiedWriteValues(*rec.ModifiedWriteValues)
		if err != nil {
			return svdmodel.NewError(diag.KindParseMissingElement, path, err)
		}
	} else if base != nil {
		mwv = base.ModifiedWriteValues
	}

	ra := model.ReadActionUnspecified
	if rec.ReadAction != nil {
		ra, err = parseReadAction(*rec.ReadAction)
		if err != nil {
			return svdmodel.NewError(diag.KindParseMissingElement, path, err)
		}
	} else if base != nil {
		ra = base.ReadAction
	}

	var baseWC *model.WriteConstraint
	if base != nil {
		baseWC = base.WriteConstraint
	}
	wc, err := convertWriteConstraint(rec.WriteConstraint, width, path, sink)
	if err != nil {
		return svdmodel.NewError(diag.KindParseMissingElement, path, err)
	}
	if wc == nil {
		wc = baseWC
	}

	description := strOr(rec.Description, baseStr(base, func(b *model.Field) string { return b.Description }))

	dimGroup, err := mergeDim(rec.Dim, dimOfField(base))
	if err != nil {
		return svdmodel.NewError(diag.KindDimTemplateError, path, err)
	}

	build := func(name string, instance int) interface{} {
		shiftedLSB, shiftedMSB := lsb, msb
		if instance >= 0 && dimGroup.DimIncrement != nil {
			shift := uint32(int64(instance) * *dimGroup.DimIncrement)
			shiftedLSB = lsb + shift
			shiftedMSB = msb + shift
		}
		return &model.Field{
			Name:                name,
			Description:         description,
			LSB:                 shiftedLSB,
			MSB:                 shiftedMSB,
			Access:              access,
			ModifiedWriteValues: mwv,
			WriteConstraint:     wc,
			ReadAction:          ra,
			Dim:                 dimGroup,
		}
	}

	return expandDimOrFinalize(g, n, rec.Name, dimGroup.Dim, dimGroup.DimIncrement, dimGroup.DimIndex, true, false, sink, build)
}

// processEnumContainer runs the wildcard-expansion/uniqueness/isDefault
// pipeline (enumval.Expand) against the container's raw enumerated
// values. The owning field must already be PROCESSED — guaranteed by
// eligibility, since the container only becomes an unprocessed root
// once its field's outgoing edge has been promoted to CHILD_RESOLVED
// (4.6) — to supply the bit width wildcard expansion needs.
func processEnumContainer(g *graph.Graph, n *graph.Node, sink diag.Warner) error {
	rec := n.Record.(*record.EnumeratedValueContainer)
	path := g.Path(n.ID)

	fieldNode := g.Node(n.Parent)
	var width uint32 = 32
	if fieldNode != nil {
		if f, ok := fieldNode.Processed.(*model.Field); ok {
			width = f.Width()
		}
	}

	usage := model.UsageReadWrite
	if rec.Usage != nil {
		u, err := parseUsage(*rec.Usage)
		if err != nil {
			return svdmodel.NewError(diag.KindParseMissingElement, path, err)
		}
		usage = u
	}

	raws := make([]enumval.RawValue, 0, len(rec.EnumeratedValues))
	for _, ev := range rec.EnumeratedValues {
		isDefault := false
		if ev.IsDefault != nil {
			v, err := numlit.ParseBool(*ev.IsDefault)
			if err != nil {
				return svdmodel.NewError(diag.KindParseMissingElement, path, err)
			}
			isDefault = v
		}
		raws = append(raws, enumval.NewRawValue(ev.Name, strv(ev.Description), strv(ev.Value), isDefault))
	}

	values, err := enumval.Expand(raws, width, path, sink)
	if err != nil {
		return svdmodel.NewError(diag.KindDuplicateName, path, err)
	}

	name := strv(rec.Name)
	g.MarkProcessed(n.ID, &model.EnumeratedValueContainer{
		Name:             name,
		Usage:            usage,
		EnumeratedValues: values,
	})
	return nil
}

// --- bit-range normalization (4.3 item 4) -------------------------------

// resolveBitRange picks whichever of the three CMSIS-SVD bit-range
// encodings the field carries (bitOffset+bitWidth, lsb+msb, or
// bitRange="[msb:lsb]") and normalizes it to an (lsb, msb) pair. An
// msb<lsb reversal in the lsb/msb or bitRange forms is a warning (the
// values are swapped); a malformed bitRange string itself is fatal
// (DESIGN.md's resolution of the bit-range Open Question).
func resolveBitRange(f *record.Field, basePresent bool, baseLSB, baseMSB uint32, path string, sink diag.Warner) (lsb, msb uint32, err error) {
	switch {
	case f.BitOffset != nil || f.BitWidth != nil:
		if f.BitOffset == nil || f.BitWidth == nil {
			return 0, 0, fmt.Errorf("bitOffset and bitWidth must both be present")
		}
		off, err := numlit.ParseInt(*f.BitOffset)
		if err != nil {
			return 0, 0, err
		}
		width, err := numlit.ParseInt(*f.BitWidth)
		if err != nil {
			return 0, 0, err
		}
		lsb = uint32(off)
		msb = lsb + uint32(width) - 1
		return lsb, msb, nil

	case f.LSB != nil || f.MSB != nil:
		if f.LSB == nil || f.MSB == nil {
			return 0, 0, fmt.Errorf("lsb and msb must both be present")
		}
		lv, err := numlit.ParseInt(*f.LSB)
		if err != nil {
			return 0, 0, err
		}
		mv, err := numlit.ParseInt(*f.MSB)
		if err != nil {
			return 0, 0, err
		}
		lsb, msb = uint32(lv), uint32(mv)
		if lsb > msb {
			sink.Warnf(diag.KindInvalidBitRange, path, "lsb %d exceeds msb %d, swapped", lsb, msb)
			lsb, msb = msb, lsb
		}
		return lsb, msb, nil

	case f.BitRange != nil:
		s := strings.TrimSpace(*f.BitRange)
		if !strings.HasPrefix(s, "[") || !strings.HasSuffix(s, "]") {
			return 0, 0, fmt.Errorf("malformed bitRange %q", *f.BitRange)
		}
		s = s[1 : len(s)-1]
		parts := strings.SplitN(s, ":", 2)
		if len(parts) != 2 {
			return 0, 0, fmt.Errorf("malformed bitRange %q", *f.BitRange)
		}
		mv, err := numlit.ParseInt(strings.TrimSpace(parts[0]))
		if err != nil {
			return 0, 0, fmt.Errorf("malformed bitRange %q: %w", *f.BitRange, err)
		}
		lv, err := numlit.ParseInt(strings.TrimSpace(parts[1]))
		if err != nil {
			return 0, 0, fmt.Errorf("malformed bitRange %q: %w", *f.BitRange, err)
		}
		lsb, msb = uint32(lv), uint32(mv)
		if lsb > msb {
			sink.Warnf(diag.KindInvalidBitRange, path, "bitRange %q has msb < lsb, swapped", *f.BitRange)
			lsb, msb = msb, lsb
		}
		return lsb, msb, nil

	default:
		if basePresent {
			return baseLSB, baseMSB, nil
		}
		return 0, 0, fmt.Errorf("no bitOffset/bitWidth, lsb/msb, or bitRange present")
	}
}

// convertAddressBlock decodes one addressBlock element. A missing
// offset defaults to 0, a missing usage defaults to "registers", and a
// missing protection defaults to enclosingProtection (the owning
// peripheral's already-merged register-property-group protection) —
// all three per SVDSuite's resolve.py, all three warned rather than
// applied silently (SPEC_FULL §4).
func convertAddressBlock(ab *record.AddressBlock, enclosingProtection model.Protection, path string, sink diag.Warner) (*model.AddressBlock, error) {
	var offset uint64
	if ab.Offset != nil {
		v, err := numlit.ParseInt(*ab.Offset)
		if err != nil {
			return nil, err
		}
		offset = uint64(v)
	} else {
		sink.Warnf(diag.KindDefaultedAttribute, path, "addressBlock missing offset, defaulting to 0")
	}

	size, err := numlit.ParseInt(strv(ab.Size))
	if err != nil {
		return nil, fmt.Errorf("addressBlock size: %w", err)
	}

	usage := "registers"
	if ab.Usage != nil {
		usage = *ab.Usage
	} else {
		sink.Warnf(diag.KindDefaultedAttribute, path, "addressBlock missing usage, defaulting to %q", usage)
	}

	protection := enclosingProtection
	if ab.Protection != nil {
		p, err := parseProtection(*ab.Protection)
		if err != nil {
			return nil, err
		}
		protection = p
	} else {
		sink.Warnf(diag.KindDefaultedAttribute, path, "addressBlock missing protection, defaulting to enclosing peripheral's")
	}

	return &model.AddressBlock{
		Offset:     offset,
		Size:       uint64(size),
		Usage:      usage,
		Protection: protection,
	}, nil
}

// convertWriteConstraint decodes a writeConstraint element, warning if
// a declared range exceeds the owning field's bit width (width == 0
// skips the check, used for register-level writeConstraints which are
// not bound to a single field's width).
func convertWriteConstraint(raw *record.WriteConstraint, width uint32, path string, sink diag.Warner) (*model.WriteConstraint, error) {
	if raw == nil {
		return nil, nil
	}
	wc := &model.WriteConstraint{}
	if raw.WriteAsRead != nil {
		v, err := numlit.ParseBool(*raw.WriteAsRead)
		if err != nil {
			return nil, err
		}
		wc.WriteAsRead = v
	}
	if raw.UseEnumeratedValues != nil {
		v, err := numlit.ParseBool(*raw.UseEnumeratedValues)
		if err != nil {
			return nil, err
		}
		wc.UseEnumeratedValues = v
	}

	var maxVal uint64 = ^uint64(0)
	if width > 0 && width < 64 {
		maxVal = uint64(1)<<width - 1
	}

	if raw.RangeMinimum != nil {
		v, err := numlit.ParseInt(*raw.RangeMinimum)
		if err != nil {
			return nil, err
		}
		u := uint64(v)
		if u > maxVal {
			sink.Warnf(diag.KindOversizedValue, path, "writeConstraint rangeMinimum %d exceeds field width", u)
		}
		wc.RangeMinimum = &u
	}
	if raw.RangeMaximum != nil {
		v, err := numlit.ParseInt(*raw.RangeMaximum)
		if err != nil {
			return nil, err
		}
		u := uint64(v)
		if u > maxVal {
			sink.Warnf(diag.KindOversizedValue, path, "writeConstraint rangeMaximum %d exceeds field width", u)
		}
		wc.RangeMaximum = &u
	}
	return wc, nil
}

// --- base-value accessors ------------------------------------------------

// baseStr reads a string attribute off a DERIVE base that may be nil,
// used for the many "use my own value, else fall back to the base's"
// merges of 4.3 item 1.
func baseStr[T any](base *T, get func(*T) string) string {
	if base == nil {
		return ""
	}
	return get(base)
}

func propsOfPeripheral(b *model.Peripheral) *model.RegisterProperties {
	if b == nil {
		return nil
	}
	return &b.Properties
}

func propsOfCluster(b *model.Cluster) *model.RegisterProperties {
	if b == nil {
		return nil
	}
	return &b.Properties
}

func propsOfRegister(b *model.Register) *model.RegisterProperties {
	if b == nil {
		return nil
	}
	return &b.Properties
}

func dimOfPeripheral(b *model.Peripheral) *model.DimElement {
	if b == nil {
		return nil
	}
	return &b.Dim
}

func dimOfCluster(b *model.Cluster) *model.DimElement {
	if b == nil {
		return nil
	}
	return &b.Dim
}

func dimOfRegister(b *model.Register) *model.DimElement {
	if b == nil {
		return nil
	}
	return &b.Dim
}

func dimOfField(b *model.Field) *model.DimElement {
	if b == nil {
		return nil
	}
	return &b.Dim
}

// ParseAccess and ParseProtection are exported for the finalize
// package's device-level property conversion, which has no DERIVE
// base to merge from and so doesn't need the rest of this package's
// machinery.
func ParseAccess(s string) (model.Access, error) { return parseAccess(s) }

func ParseProtection(s string) (model.Protection, error) { return parseProtection(s) }
