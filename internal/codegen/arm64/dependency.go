package arm64

import (
	"github.com/ternlabs/tern/internal/codegen"
)

// RegisterDependency pins one virtual register to a real register number at a
// control-flow merge point. SpilledReg as the real number means the virtual
// is expected in its backing store rather than in a register.
type RegisterDependency struct {
	virtual *codegen.VirtualRegister
	realNum RegNum
}

// Register returns the virtual register of the dependency.
func (d *RegisterDependency) Register() *codegen.VirtualRegister { return d.virtual }

// RealRegisterNumber returns the required real register number.
func (d *RegisterDependency) RealRegisterNumber() RegNum { return d.realNum }

// RegisterDependencyConditions carries the post-conditions attached to an
// instruction, typically the entry label of an out-of-line section.
type RegisterDependencyConditions struct {
	post []RegisterDependency
}

// NewRegisterDependencyConditions returns conditions with room for n
// post-conditions.
func NewRegisterDependencyConditions(n int) *RegisterDependencyConditions {
	return &RegisterDependencyConditions{post: make([]RegisterDependency, 0, n)}
}

// AddPostCondition requires virt to be in the given real register (or spilled,
// for SpilledReg) after the instruction these conditions hang off.
func (c *RegisterDependencyConditions) AddPostCondition(virt *codegen.VirtualRegister, realNum RegNum) {
	c.post = append(c.post, RegisterDependency{virtual: virt, realNum: realNum})
}

// PostConditions returns the post-conditions in insertion order.
func (c *RegisterDependencyConditions) PostConditions() []RegisterDependency { return c.post }
