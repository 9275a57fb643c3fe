package command

// Visitor has one method per command variant. Adding a variant adds a
// method here, which breaks every implementation until it handles it.
type Visitor interface {
	VisitNavigate(c *Navigate) error
	VisitWaitForSelector(c *WaitForSelector) error
	VisitWaitForSelectorPartial(c *WaitForSelectorPartial) error
	VisitType(c *Type) error
	VisitTypePartial(c *TypePartial) error
	VisitClick(c *Click) error
	VisitClickPartial(c *ClickPartial) error
	VisitSelectOption(c *SelectOption) error
	VisitHover(c *Hover) error
	VisitScroll(c *Scroll) error
	VisitWait(c *Wait) error
	VisitWaitForNavigation(c *WaitForNavigation) error
	VisitWaitForText(c *WaitForText) error
	VisitScreenshot(c *Screenshot) error
	VisitGetCookies(c *GetCookies) error
	VisitSetCookie(c *SetCookie) error
	VisitEvaluate(c *Evaluate) error
	VisitAssertText(c *AssertText) error
	VisitAssertElementExists(c *AssertElementExists) error
	VisitClearInput(c *ClearInput) error
	VisitUnknown(c *Unknown) error
	VisitMalformed(c *Malformed) error
}

func (c *Navigate) Accept(v Visitor) error               { return v.VisitNavigate(c) }
func (c *WaitForSelector) Accept(v Visitor) error        { return v.VisitWaitForSelector(c) }
func (c *WaitForSelectorPartial) Accept(v Visitor) error { return v.VisitWaitForSelectorPartial(c) }
func (c *Type) Accept(v Visitor) error                   { return v.VisitType(c) }
func (c *TypePartial) Accept(v Visitor) error            { return v.VisitTypePartial(c) }
func (c *Click) Accept(v Visitor) error                  { return v.VisitClick(c) }
func (c *ClickPartial) Accept(v Visitor) error           { return v.VisitClickPartial(c) }
func (c *SelectOption) Accept(v Visitor) error           { return v.VisitSelectOption(c) }
func (c *Hover) Accept(v Visitor) error                  { return v.VisitHover(c) }
func (c *Scroll) Accept(v Visitor) error                 { return v.VisitScroll(c) }
func (c *Wait) Accept(v Visitor) error                   { return v.VisitWait(c) }
func (c *WaitForNavigation) Accept(v Visitor) error      { return v.VisitWaitForNavigation(c) }
func (c *WaitForText) Accept(v Visitor) error            { return v.VisitWaitForText(c) }
func (c *Screenshot) Accept(v Visitor) error             { return v.VisitScreenshot(c) }
func (c *GetCookies) Accept(v Visitor) error             { return v.VisitGetCookies(c) }
func (c *SetCookie) Accept(v Visitor) error              { return v.VisitSetCookie(c) }
func (c *Evaluate) Accept(v Visitor) error               { return v.VisitEvaluate(c) }
func (c *AssertText) Accept(v Visitor) error             { return v.VisitAssertText(c) }
func (c *AssertElementExists) Accept(v Visitor) error    { return v.VisitAssertElementExists(c) }
func (c *ClearInput) Accept(v Visitor) error             { return v.VisitClearInput(c) }
func (c *Unknown) Accept(v Visitor) error                { return v.VisitUnknown(c) }
func (c *Malformed) Accept(v Visitor) error              { return v.VisitMalformed(c) }
