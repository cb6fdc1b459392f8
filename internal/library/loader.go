package library

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"typeweave/internal/diag"
	"typeweave/internal/meta"
	"typeweave/internal/project/dag"
)

type entry struct {
	src  *Source
	decl *TypeDecl
	name string
	at   diag.Location
}

type pendingImpl struct {
	body meta.MethodID
	ref  string
	at   diag.Location
}

type loader struct {
	u *meta.Universe
	r diag.Reporter

	entries  map[string]*entry
	declared map[string]bool
	ids      map[string]meta.TypeID
	impls    []pendingImpl
}

// Load declares every type of sources into a new universe and freezes it.
// Types are declared after their base type and interfaces. Problems are
// reported to r; a type with errors is left out together with the types
// that depend on it, and the rest of the universe is still usable.
func Load(sources []*Source, r diag.Reporter) *meta.Universe {
	l := &loader{
		u:        meta.NewUniverse(),
		r:        r,
		entries:  make(map[string]*entry),
		declared: make(map[string]bool),
		ids:      make(map[string]meta.TypeID),
	}
	nodes := l.collect(sources)
	idx := dag.BuildIndex(nodes)
	g, slots := dag.BuildGraph(idx, nodes, r)
	topo := dag.ToposortKahn(g)
	dag.ReportCycles(idx, slots, topo, r)

	order := make([]*entry, 0, len(topo.Order))
	for _, id := range topo.Order {
		if e, ok := l.entries[idx.IDToName[int(id)]]; ok {
			order = append(order, e)
		}
	}
	for _, e := range order {
		l.declareType(e)
	}
	for _, e := range order {
		l.declareMembers(e)
	}
	l.resolveImpls()
	l.u.Freeze()
	return l.u
}

func (l *loader) collect(sources []*Source) []dag.Node {
	var nodes []dag.Node
	libs := make(map[string]diag.Location, len(sources))
	for _, src := range sources {
		if src == nil || src.Doc == nil {
			continue
		}
		libAt := diag.Location{Path: src.Display, Subject: src.Doc.Library.Name}
		if prev, dup := libs[src.Doc.Library.Name]; dup {
			diag.ReportError(l.r, diag.LibDuplicateLibrary, libAt, fmt.Sprintf("duplicate library %q", src.Doc.Library.Name)).
				WithNote(prev, "previously loaded here").
				Emit()
			continue
		}
		libs[src.Doc.Library.Name] = libAt

		for i := range src.Doc.Types {
			decl := &src.Doc.Types[i]
			if strings.TrimSpace(decl.Name) == "" {
				at := diag.Location{Path: src.Display, Subject: fmt.Sprintf("type #%d", i+1)}
				diag.ReportError(l.r, diag.LibParseError, at, "type without a name").Emit()
				continue
			}
			full := decl.FullName()
			at := diag.Location{Path: src.Display, Subject: full}
			l.declared[full] = true
			if _, ok := l.entries[full]; !ok {
				l.entries[full] = &entry{src: src, decl: decl, name: full, at: at}
			}
			n := dag.Node{Name: full, At: at}
			for _, ref := range slices.Concat([]string{decl.Base}, decl.Interfaces) {
				if strings.TrimSpace(ref) == "" {
					continue
				}
				elem, _, _, err := meta.SplitRef(ref)
				if err != nil {
					continue
				}
				if _, builtin := l.u.LookupRef(elem); builtin {
					continue
				}
				n.Deps = append(n.Deps, dag.Dep{Name: elem, At: at})
			}
			nodes = append(nodes, n)
		}
	}
	return nodes
}

// typeRef resolves ref. Names declared by some library but missing from the
// universe had errors of their own; unknown names in base or interface
// position were already reported while ordering, so ordered suppresses them.
func (l *loader) typeRef(ref string, at diag.Location, code diag.Code, ordered bool) (meta.TypeID, bool) {
	id, err := l.u.ResolveRef(ref)
	if err == nil {
		return id, true
	}
	if errors.Is(err, meta.ErrUnknownType) {
		elem, _, _, serr := meta.SplitRef(ref)
		if serr == nil && l.declared[elem] {
			diag.ReportError(l.r, code, at, fmt.Sprintf("type %q is not available because its declaration has errors", elem)).Emit()
			return meta.NoTypeID, false
		}
		if ordered {
			return meta.NoTypeID, false
		}
	}
	diag.ReportError(l.r, diag.LibUnknownType, at, err.Error()).Emit()
	return meta.NoTypeID, false
}

func (l *loader) declareType(e *entry) {
	decl := e.decl
	if _, exists := l.u.Lookup(e.name); exists {
		diag.ReportError(l.r, diag.LibDuplicateType, e.at, fmt.Sprintf("type %q is already defined", e.name)).Emit()
		return
	}
	attrs, err := meta.ParseTypeAttributes(decl.Attributes)
	if err != nil {
		diag.ReportError(l.r, diag.LibInvalidAttribute, e.at, err.Error()).Emit()
		return
	}

	var id meta.TypeID
	switch kind := strings.ToLower(strings.TrimSpace(decl.Kind)); kind {
	case "", "class":
		base := meta.NoTypeID
		if strings.TrimSpace(decl.Base) != "" {
			b, ok := l.typeRef(decl.Base, e.at, diag.LibInvalidBase, true)
			if !ok {
				return
			}
			bt := l.u.Type(b)
			if bt.Kind != meta.KindClass {
				diag.ReportError(l.r, diag.LibInvalidBase, e.at, fmt.Sprintf("%s cannot be a base class: it is %s", meta.TypeName(l.u, b), bt.Kind)).Emit()
				return
			}
			if bt.IsSealed() {
				diag.ReportError(l.r, diag.LibInvalidBase, e.at, fmt.Sprintf("cannot derive from sealed type %s", meta.TypeName(l.u, b))).Emit()
				return
			}
			base = b
		}
		ifaces, ok := l.interfaces(e)
		if !ok {
			return
		}
		id = l.u.DefineClass(decl.Namespace, decl.Name, base, attrs)
		for _, iface := range ifaces {
			l.u.AddInterface(id, iface)
		}
	case "interface":
		if !l.noBase(e, "interfaces") {
			return
		}
		if attrs&meta.TypeSealed != 0 {
			diag.ReportError(l.r, diag.LibInvalidAttribute, e.at, "interfaces cannot be sealed").Emit()
			return
		}
		ifaces, ok := l.interfaces(e)
		if !ok {
			return
		}
		id = l.u.DefineInterface(decl.Namespace, decl.Name, attrs, ifaces...)
	case "struct", "valuetype":
		if !l.noBase(e, "value types") {
			return
		}
		if attrs&meta.TypeAbstract != 0 {
			diag.ReportError(l.r, diag.LibInvalidAttribute, e.at, "value types cannot be abstract").Emit()
			return
		}
		ifaces, ok := l.interfaces(e)
		if !ok {
			return
		}
		id = l.u.DefineValueType(decl.Namespace, decl.Name, attrs)
		for _, iface := range ifaces {
			l.u.AddInterface(id, iface)
		}
	default:
		diag.ReportError(l.r, diag.LibInvalidKind, e.at, fmt.Sprintf("unknown kind %q, want class, interface or struct", kind)).Emit()
		return
	}
	l.ids[e.name] = id
}

func (l *loader) noBase(e *entry, what string) bool {
	if strings.TrimSpace(e.decl.Base) == "" {
		return true
	}
	diag.ReportError(l.r, diag.LibInvalidBase, e.at, fmt.Sprintf("%s cannot have a base type", what)).Emit()
	return false
}

func (l *loader) interfaces(e *entry) ([]meta.TypeID, bool) {
	out := make([]meta.TypeID, 0, len(e.decl.Interfaces))
	for _, ref := range e.decl.Interfaces {
		id, ok := l.typeRef(ref, e.at, diag.LibInvalidBase, true)
		if !ok {
			return nil, false
		}
		if !l.u.Type(id).IsInterface() {
			diag.ReportError(l.r, diag.LibInvalidBase, e.at, fmt.Sprintf("%s is not an interface", meta.TypeName(l.u, id))).Emit()
			return nil, false
		}
		out = append(out, id)
	}
	return out, true
}

func memberAt(e *entry, member string) diag.Location {
	return diag.Location{Path: e.at.Path, Subject: e.name + "." + member}
}

func (l *loader) declareMembers(e *entry) {
	owner, ok := l.ids[e.name]
	if !ok {
		return
	}
	decl := e.decl
	for i := range decl.Fields {
		l.defineField(e, owner, &decl.Fields[i])
	}
	for i := range decl.Constructors {
		l.defineConstructor(e, owner, i, &decl.Constructors[i])
	}
	byName := make(map[string][]meta.MethodID, len(decl.Methods))
	for i := range decl.Methods {
		if id, ok := l.defineMethod(e, owner, &decl.Methods[i]); ok {
			byName[decl.Methods[i].Name] = append(byName[decl.Methods[i].Name], id)
		}
	}
	for i := range decl.Properties {
		l.defineProperty(e, owner, byName, &decl.Properties[i])
	}
	for i := range decl.Events {
		l.defineEvent(e, owner, byName, &decl.Events[i])
	}
}

func (l *loader) defineField(e *entry, owner meta.TypeID, f *FieldDecl) {
	at := memberAt(e, f.Name)
	if strings.TrimSpace(f.Name) == "" {
		diag.ReportError(l.r, diag.LibParseError, at, "field without a name").Emit()
		return
	}
	attrs, err := meta.ParseFieldAttributes(f.Attributes)
	if err != nil {
		diag.ReportError(l.r, diag.LibInvalidAttribute, at, err.Error()).Emit()
		return
	}
	if l.u.Type(owner).IsInterface() && !attrs.IsStatic() {
		diag.ReportError(l.r, diag.LibInvalidKind, at, "interfaces cannot declare instance fields").Emit()
		return
	}
	typ, ok := l.typeRef(f.Type, at, diag.LibUnknownType, false)
	if !ok {
		return
	}
	if typ == l.u.Builtins().Void {
		diag.ReportError(l.r, diag.LibInvalidKind, at, fmt.Sprintf("field %q cannot be void", f.Name)).Emit()
		return
	}
	l.u.DefineField(owner, f.Name, typ, attrs)
}

type paramList struct {
	types []meta.TypeID
	names []string
	attrs []meta.ParameterAttributes
}

func (l *loader) params(decls []ParamDecl, at diag.Location) (paramList, bool) {
	var out paramList
	for i, p := range decls {
		typ, ok := l.typeRef(p.Type, at, diag.LibUnknownType, false)
		if !ok {
			return paramList{}, false
		}
		if typ == l.u.Builtins().Void {
			diag.ReportError(l.r, diag.LibInvalidKind, at, fmt.Sprintf("parameter %d cannot be void", i)).Emit()
			return paramList{}, false
		}
		attrs, err := meta.ParseParameterAttributes(p.Attributes)
		if err != nil {
			diag.ReportError(l.r, diag.LibInvalidAttribute, at, err.Error()).Emit()
			return paramList{}, false
		}
		if attrs&meta.ParamOut != 0 && l.u.Type(typ).Kind != meta.KindByRef {
			diag.ReportError(l.r, diag.LibInvalidAttribute, at, fmt.Sprintf("out parameter %d must have a by-ref type", i)).Emit()
			return paramList{}, false
		}
		out.types = append(out.types, typ)
		out.names = append(out.names, p.Name)
		out.attrs = append(out.attrs, attrs)
	}
	return out, true
}

func (l *loader) applyParamAttrs(m meta.MethodID, ps paramList) {
	for i, a := range ps.attrs {
		if a != meta.ParamNone {
			l.u.SetParamAttributes(m, i, a)
		}
	}
}

func (l *loader) defineConstructor(e *entry, owner meta.TypeID, n int, c *ConstructorDecl) {
	at := memberAt(e, fmt.Sprintf("%s#%d", meta.ConstructorName, n+1))
	if l.u.Type(owner).IsInterface() {
		diag.ReportError(l.r, diag.LibInvalidKind, at, "interfaces cannot declare constructors").Emit()
		return
	}
	attrs, err := meta.ParseMethodAttributes(c.Attributes)
	if err != nil {
		diag.ReportError(l.r, diag.LibInvalidAttribute, at, err.Error()).Emit()
		return
	}
	if attrs.IsVirtual() || attrs.IsAbstract() {
		diag.ReportError(l.r, diag.LibInvalidAttribute, at, "constructors cannot be virtual or abstract").Emit()
		return
	}
	if attrs.IsStatic() && len(c.Params) > 0 {
		diag.ReportError(l.r, diag.LibInvalidAttribute, at, "a type initializer takes no parameters").Emit()
		return
	}
	ps, ok := l.params(c.Params, at)
	if !ok {
		return
	}
	id := l.u.DefineConstructor(owner, attrs, ps.types, ps.names...)
	l.applyParamAttrs(id, ps)
}

func (l *loader) defineMethod(e *entry, owner meta.TypeID, m *MethodDecl) (meta.MethodID, bool) {
	at := memberAt(e, m.Name)
	if strings.TrimSpace(m.Name) == "" {
		diag.ReportError(l.r, diag.LibParseError, at, "method without a name").Emit()
		return meta.NoMethodID, false
	}
	attrs, err := meta.ParseMethodAttributes(m.Attributes)
	if err != nil {
		diag.ReportError(l.r, diag.LibInvalidAttribute, at, err.Error()).Emit()
		return meta.NoMethodID, false
	}
	t := l.u.Type(owner)
	var problem string
	switch {
	case attrs.IsStatic() && (attrs.IsVirtual() || attrs.IsAbstract()):
		problem = "static methods cannot be virtual or abstract"
	case t.IsInterface():
	case attrs.IsAbstract() && !attrs.IsVirtual():
		problem = "abstract methods must be virtual"
	case attrs.IsAbstract() && !t.IsAbstract():
		problem = fmt.Sprintf("abstract method in non-abstract type %s", e.name)
	case attrs.IsFinal() && !attrs.IsVirtual():
		problem = "sealed methods must be virtual"
	}
	if problem != "" {
		diag.ReportError(l.r, diag.LibInvalidAttribute, at, problem).Emit()
		return meta.NoMethodID, false
	}

	ret := l.u.Builtins().Void
	if strings.TrimSpace(m.Returns) != "" {
		var ok bool
		if ret, ok = l.typeRef(m.Returns, at, diag.LibUnknownType, false); !ok {
			return meta.NoMethodID, false
		}
	}
	ps, ok := l.params(m.Params, at)
	if !ok {
		return meta.NoMethodID, false
	}
	id := l.u.DefineMethod(owner, m.Name, attrs, meta.Signature{Return: ret, Params: ps.types}, ps.names...)
	l.applyParamAttrs(id, ps)
	for _, ref := range m.Implements {
		l.impls = append(l.impls, pendingImpl{body: id, ref: ref, at: at})
	}
	return id, true
}

func (l *loader) accessor(byName map[string][]meta.MethodID, name, role string, at diag.Location) (meta.MethodID, bool) {
	ids := byName[name]
	switch len(ids) {
	case 0:
		diag.ReportError(l.r, diag.LibInvalidAccessor, at, fmt.Sprintf("%s %q is not declared on this type", role, name)).Emit()
		return meta.NoMethodID, false
	case 1:
		return ids[0], true
	default:
		diag.ReportError(l.r, diag.LibInvalidAccessor, at, fmt.Sprintf("%s %q is overloaded", role, name)).Emit()
		return meta.NoMethodID, false
	}
}

func (l *loader) defineProperty(e *entry, owner meta.TypeID, byName map[string][]meta.MethodID, p *PropertyDecl) {
	at := memberAt(e, p.Name)
	if strings.TrimSpace(p.Name) == "" {
		diag.ReportError(l.r, diag.LibParseError, at, "property without a name").Emit()
		return
	}
	typ, ok := l.typeRef(p.Type, at, diag.LibUnknownType, false)
	if !ok {
		return
	}
	if p.Getter == "" && p.Setter == "" {
		diag.ReportError(l.r, diag.LibInvalidAccessor, at, "property has neither getter nor setter").Emit()
		return
	}
	getter, setter := meta.NoMethodID, meta.NoMethodID
	var index []meta.TypeID
	if p.Getter != "" {
		if getter, ok = l.accessor(byName, p.Getter, "getter", at); !ok {
			return
		}
		sig := l.u.Method(getter).Signature
		if sig.Return != typ {
			diag.ReportError(l.r, diag.LibInvalidAccessor, at, fmt.Sprintf("getter %q returns %s, want %s", p.Getter, meta.TypeName(l.u, sig.Return), meta.TypeName(l.u, typ))).Emit()
			return
		}
		index = sig.Params
	}
	if p.Setter != "" {
		if setter, ok = l.accessor(byName, p.Setter, "setter", at); !ok {
			return
		}
		sig := l.u.Method(setter).Signature
		n := len(sig.Params)
		if n == 0 || sig.Params[n-1] != typ || sig.Return != l.u.Builtins().Void {
			diag.ReportError(l.r, diag.LibInvalidAccessor, at, fmt.Sprintf("setter %q must return void and take %s last", p.Setter, meta.TypeName(l.u, typ))).Emit()
			return
		}
		if getter.IsValid() && !slices.Equal(index, sig.Params[:n-1]) {
			diag.ReportError(l.r, diag.LibInvalidAccessor, at, "getter and setter disagree on index parameters").Emit()
			return
		}
		index = sig.Params[:n-1]
	}
	l.u.DefineProperty(owner, p.Name, typ, getter, setter, index...)
}

func (l *loader) defineEvent(e *entry, owner meta.TypeID, byName map[string][]meta.MethodID, ev *EventDecl) {
	at := memberAt(e, ev.Name)
	if strings.TrimSpace(ev.Name) == "" {
		diag.ReportError(l.r, diag.LibParseError, at, "event without a name").Emit()
		return
	}
	handler, ok := l.typeRef(ev.Handler, at, diag.LibUnknownType, false)
	if !ok {
		return
	}
	if !meta.IsSubclassOf(l.u, handler, l.u.Builtins().Delegate) {
		diag.ReportError(l.r, diag.LibInvalidKind, at, fmt.Sprintf("event handler %s is not a delegate type", meta.TypeName(l.u, handler))).Emit()
		return
	}
	want := meta.Signature{Return: l.u.Builtins().Void, Params: []meta.TypeID{handler}}
	var accessors [2]meta.MethodID
	for i, name := range []string{ev.Add, ev.Remove} {
		role := [2]string{"add accessor", "remove accessor"}[i]
		if name == "" {
			diag.ReportError(l.r, diag.LibInvalidAccessor, at, fmt.Sprintf("event is missing its %s", role)).Emit()
			return
		}
		id, ok := l.accessor(byName, name, role, at)
		if !ok {
			return
		}
		if !l.u.Method(id).Signature.Equal(want) {
			diag.ReportError(l.r, diag.LibInvalidAccessor, at, fmt.Sprintf("%s %q must be %s", role, name, meta.FormatSignature(l.u, name, want))).Emit()
			return
		}
		accessors[i] = id
	}
	l.u.DefineEvent(owner, ev.Name, handler, accessors[0], accessors[1])
}

func (l *loader) resolveImpls() {
	for _, p := range l.impls {
		body := l.u.Method(p.body)
		dot := strings.LastIndexByte(p.ref, '.')
		if dot <= 0 || dot == len(p.ref)-1 {
			diag.ReportError(l.r, diag.LibInvalidMethodImpl, p.at, fmt.Sprintf("malformed method reference %q, want Namespace.Type.Method", p.ref)).Emit()
			continue
		}
		typName, name := p.ref[:dot], p.ref[dot+1:]
		decl, ok := l.u.LookupRef(typName)
		if !ok {
			diag.ReportError(l.r, diag.LibInvalidMethodImpl, p.at, fmt.Sprintf("unknown type %q in %q", typName, p.ref)).Emit()
			continue
		}
		if !body.Attributes.IsVirtual() || body.Attributes.IsStatic() {
			diag.ReportError(l.r, diag.LibInvalidMethodImpl, p.at, fmt.Sprintf("only virtual instance methods can implement %s", p.ref)).Emit()
			continue
		}
		owner := body.DeclaringType
		related := meta.IsSubclassOf(l.u, owner, decl)
		if l.u.Type(decl).IsInterface() {
			related = slices.Contains(l.u.Interfaces(owner), decl)
		}
		if !related {
			diag.ReportError(l.r, diag.LibInvalidMethodImpl, p.at, fmt.Sprintf("%s neither implements nor derives from %s", meta.TypeName(l.u, owner), meta.TypeName(l.u, decl))).Emit()
			continue
		}
		target := meta.NoMethodID
		for _, id := range l.u.DeclaredMethods(decl) {
			m := l.u.Method(id)
			if m.Name == name && m.Attributes.IsVirtual() && !m.Attributes.IsFinal() && m.Signature.Equal(body.Signature) {
				target = id
				break
			}
		}
		if !target.IsValid() {
			diag.ReportError(l.r, diag.LibInvalidMethodImpl, p.at, fmt.Sprintf("%s declares no overridable %s", meta.TypeName(l.u, decl), meta.FormatSignature(l.u, name, body.Signature))).Emit()
			continue
		}
		l.u.DefineMethodImpl(p.body, target)
	}
}
