// Package reflect emits the reflection manifest described in spec.md §6:
// a version-2 JSON document listing every type declared in a module,
// its fields, and its methods. It is a pure AST->JSON encoder, the same
// shape as the teacher's internal/errors/json_encoder.go: a handful of
// exported structs with `json` tags plus one Encode entry point, no
// bidirectional decode path.
package reflect

import (
	"encoding/json"

	"github.com/chic-lang/chicc/internal/ast"
)

// ManifestVersion is the only version this encoder produces.
const ManifestVersion = 2

// Manifest is the top-level reflection document.
type Manifest struct {
	Version int          `json:"version"`
	Types   []TypeRecord `json:"types"`
}

// FieldRecord describes one field or property.
type FieldRecord struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Static   bool   `json:"static,omitempty"`
	Readonly bool   `json:"readonly,omitempty"`
}

// ParamRecord describes one method parameter.
type ParamRecord struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// MethodRecord describes one method or constructor.
type MethodRecord struct {
	Name       string        `json:"name"`
	Parameters []ParamRecord `json:"parameters"`
	ReturnType string        `json:"return_type,omitempty"`
	Static     bool          `json:"static,omitempty"`
}

// TypeRecord describes one struct/class, union, enum, interface, or
// trait declared in the module.
type TypeRecord struct {
	Name    string         `json:"name"`
	Kind    string         `json:"kind"`
	Fields  []FieldRecord  `json:"fields,omitempty"`
	Methods []MethodRecord `json:"methods,omitempty"`
}

// BuildManifest walks m (recursing into namespaces) and returns the
// reflection manifest for every declared type.
func BuildManifest(m *ast.Module) *Manifest {
	mf := &Manifest{Version: ManifestVersion}
	walk(m.Items, m.Namespace, mf)
	return mf
}

func walk(items []ast.Item, namespace string, mf *Manifest) {
	for _, item := range items {
		switch it := item.(type) {
		case *ast.NamespaceItem:
			child := it.NamespaceName
			if namespace != "" {
				child = namespace + "." + it.NamespaceName
			}
			walk(it.Items, child, mf)
		case *ast.StructDecl:
			mf.Types = append(mf.Types, structRecord(namespace, it))
		case *ast.UnionDecl:
			mf.Types = append(mf.Types, unionRecord(namespace, it))
		case *ast.EnumDecl:
			mf.Types = append(mf.Types, enumRecord(namespace, it))
		case *ast.InterfaceDecl:
			mf.Types = append(mf.Types, interfaceRecord(namespace, it))
		case *ast.TraitDecl:
			mf.Types = append(mf.Types, traitRecord(namespace, it))
		}
	}
}

func qualify(namespace, name string) string {
	if namespace == "" {
		return name
	}
	return namespace + "." + name
}

func structRecord(namespace string, s *ast.StructDecl) TypeRecord {
	kind := "struct"
	if s.IsClass {
		kind = "class"
	} else if s.IsRecord {
		kind = "record"
	}
	rec := TypeRecord{Name: qualify(namespace, s.StructName), Kind: kind}
	for _, f := range s.Fields {
		rec.Fields = append(rec.Fields, FieldRecord{
			Name: f.Name, Type: f.Type.String(), Static: f.IsStatic, Readonly: f.IsReadonly,
		})
	}
	for _, p := range s.Properties {
		rec.Fields = append(rec.Fields, FieldRecord{Name: p.Name, Type: p.Type.String(), Static: p.IsStatic})
	}
	for _, ctor := range s.Constructors {
		rec.Methods = append(rec.Methods, methodRecord("init", ctor.Signature, false))
	}
	for _, meth := range s.Methods {
		rec.Methods = append(rec.Methods, methodRecord(meth.FuncName, meth.Signature, hasModifier(meth.Modifiers, "static")))
	}
	return rec
}

func unionRecord(namespace string, u *ast.UnionDecl) TypeRecord {
	rec := TypeRecord{Name: qualify(namespace, u.UnionName), Kind: "union"}
	for _, v := range u.Variants {
		for _, f := range v.Fields {
			rec.Fields = append(rec.Fields, FieldRecord{Name: v.Name + "." + f.Name, Type: f.Type.String()})
		}
	}
	return rec
}

func enumRecord(namespace string, e *ast.EnumDecl) TypeRecord {
	rec := TypeRecord{Name: qualify(namespace, e.EnumName), Kind: "enum"}
	for _, v := range e.Variants {
		rec.Fields = append(rec.Fields, FieldRecord{Name: v.Name})
	}
	return rec
}

func interfaceRecord(namespace string, i *ast.InterfaceDecl) TypeRecord {
	rec := TypeRecord{Name: qualify(namespace, i.InterfaceName), Kind: "interface"}
	for _, p := range i.Properties {
		rec.Fields = append(rec.Fields, FieldRecord{Name: p.Name, Type: p.Type.String()})
	}
	for _, meth := range i.Methods {
		rec.Methods = append(rec.Methods, methodRecord(meth.FuncName, meth.Signature, false))
	}
	return rec
}

func traitRecord(namespace string, t *ast.TraitDecl) TypeRecord {
	rec := TypeRecord{Name: qualify(namespace, t.TraitName), Kind: "trait"}
	for _, meth := range t.Methods {
		rec.Methods = append(rec.Methods, methodRecord(meth.FuncName, meth.Signature, false))
	}
	return rec
}

func hasModifier(mods []string, name string) bool {
	for _, m := range mods {
		if m == name {
			return true
		}
	}
	return false
}

func methodRecord(name string, sig ast.Signature, static bool) MethodRecord {
	mr := MethodRecord{Name: name, ReturnType: sig.ReturnType.String(), Static: static}
	for _, p := range sig.Parameters {
		mr.Parameters = append(mr.Parameters, ParamRecord{Name: p.Name, Type: p.Type.String()})
	}
	return mr
}

// Encode renders the manifest as indented JSON, the same
// `json.MarshalIndent` shape the teacher's error encoder uses.
func Encode(mf *Manifest) ([]byte, error) {
	return json.MarshalIndent(mf, "", "  ")
}
