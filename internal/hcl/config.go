package hcl

import (
	"fmt"
	"sort"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/vk/streamgridgo/internal/metainject"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
)

// configure turns a step's config body into an injection request and
// applies it to the plugin. Attributes set top-level keys; each nested block
// is a repeating group whose child blocks are its records.
func (l *Loader) configure(plugin metainject.Injectable, body hcl.Body) error {
	syntaxBody, ok := body.(*hclsyntax.Body)
	if !ok {
		return fmt.Errorf("config must use native HCL syntax")
	}

	req := metainject.NewRequest(plugin)
	var diags hcl.Diagnostics

	for _, attr := range sortedAttributes(syntaxBody.Attributes) {
		text, isNull, d := l.attributeText(attr)
		diags = append(diags, d...)
		if d.HasErrors() {
			continue
		}
		if isNull {
			req.SetNull(attr.Name)
		} else {
			req.Set(attr.Name, text)
		}
	}

	for _, group := range syntaxBody.Blocks {
		if len(group.Labels) > 0 {
			diags = append(diags, &hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Unexpected block labels",
				Detail:   fmt.Sprintf("Group block %q does not take labels.", group.Type),
				Subject:  group.DefRange().Ptr(),
			})
			continue
		}
		if len(group.Body.Attributes) > 0 {
			attr := sortedAttributes(group.Body.Attributes)[0]
			diags = append(diags, &hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Unexpected attribute",
				Detail:   fmt.Sprintf("Group block %q may only contain record blocks.", group.Type),
				Subject:  attr.SrcRange.Ptr(),
			})
			continue
		}
		recordKey := recordKeyOf(plugin.InjectionShape(), group.Type)
		records := make([]metainject.Record, 0, len(group.Body.Blocks))
		for _, recBlock := range group.Body.Blocks {
			if d := checkRecordBlock(group.Type, recordKey, recBlock); d.HasErrors() {
				diags = append(diags, d...)
				continue
			}
			rec := metainject.Record{}
			for _, attr := range sortedAttributes(recBlock.Body.Attributes) {
				text, isNull, d := l.attributeText(attr)
				diags = append(diags, d...)
				if !d.HasErrors() && !isNull {
					rec[attr.Name] = text
				}
			}
			records = append(records, rec)
		}
		req.SetRecords(group.Type, records...)
	}

	if diags.HasErrors() {
		return diags
	}
	return req.Apply()
}

// recordKeyOf returns the record block type declared for a group, or "" when
// the group is unknown and the request will report it.
func recordKeyOf(shape []*metainject.Entry, groupKey string) string {
	tmpl := metainject.FindEntry(shape, groupKey)
	if tmpl == nil || len(tmpl.Children) == 0 {
		return ""
	}
	return tmpl.Children[0].Key
}

// checkRecordBlock rejects record blocks of the wrong type and record
// blocks carrying labels or nested blocks.
func checkRecordBlock(groupType, recordKey string, block *hclsyntax.Block) hcl.Diagnostics {
	var diags hcl.Diagnostics
	if recordKey != "" && block.Type != recordKey {
		diags = append(diags, &hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "Unexpected record block",
			Detail:   fmt.Sprintf("unknown injection key %q in group %q; records are %q blocks.", block.Type, groupType, recordKey),
			Subject:  block.DefRange().Ptr(),
		})
	}
	if len(block.Labels) > 0 {
		diags = append(diags, &hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "Unexpected block labels",
			Detail:   fmt.Sprintf("Record block %q does not take labels.", block.Type),
			Subject:  block.DefRange().Ptr(),
		})
	}
	for _, nested := range block.Body.Blocks {
		diags = append(diags, &hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "Unexpected block",
			Detail:   fmt.Sprintf("Record block %q may only contain attributes, found %q.", block.Type, nested.Type),
			Subject:  nested.DefRange().Ptr(),
		})
	}
	return diags
}

// attributeText evaluates an attribute and renders it as canonical text.
func (l *Loader) attributeText(attr *hclsyntax.Attribute) (string, bool, hcl.Diagnostics) {
	val, diags := attr.Expr.Value(l.evalCtx)
	if diags.HasErrors() {
		return "", false, diags
	}
	if val.IsNull() {
		return "", true, nil
	}
	str, err := convert.Convert(val, cty.String)
	if err != nil || !str.IsKnown() {
		return "", false, hcl.Diagnostics{{
			Severity: hcl.DiagError,
			Summary:  "Unsupported value",
			Detail:   fmt.Sprintf("Attribute %q must be a string, number or bool.", attr.Name),
			Subject:  attr.SrcRange.Ptr(),
		}}
	}
	return str.AsString(), false, nil
}

func sortedAttributes(attrs hclsyntax.Attributes) []*hclsyntax.Attribute {
	out := make([]*hclsyntax.Attribute, 0, len(attrs))
	for _, a := range attrs {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].SrcRange.Start.Byte < out[j].SrcRange.Start.Byte
	})
	return out
}
