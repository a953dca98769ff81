package chip8

import "fmt"

// Clock executes the instruction at m.PC: fetch, decode, dispatch, then
// advance PC by 2. Handlers that redirect control flow pre-compensate by
// writing target-2 so the trailing advance lands on the intended address.
// Clock returns a non-nil error only when the machine cannot continue;
// see FaultError for the conditions.
func (m *Machine) Clock() (err error) {
	pc := m.PC
	if int(pc)+1 >= MemSize {
		return FaultError{Fault: InvalidAddress, Addr: pc}
	}
	op := Decode(uint16(m.Mem[pc])<<8 | uint16(m.Mem[pc+1]))
	defer func() {
		if e := recover(); e != nil {
			f, ok := e.(Fault)
			if !ok {
				panic(e)
			}
			err = FaultError{Fault: f, Code: op.Code, Addr: pc}
		}
	}()

	in := m.inst(op)
	if in.fn == nil {
		if m.Strict {
			return FaultError{Fault: InvalidOpcode, Code: op.Code, Addr: pc}
		}
		m.BadOps++
		if m.Diag != nil {
			m.Diag(pc, op.Code)
		}
	} else {
		in.fn(m, op)
	}
	m.PC += 2
	return nil
}

// Fault signifies the type of condition that stopped execution.
type Fault byte

const (
	InvalidOpcode Fault = iota
	InvalidAddress
	StackOverflow
	StackUnderflow
)

func (f Fault) String() string {
	if s, ok := map[Fault]string{
		InvalidOpcode:  "invalid opcode",
		InvalidAddress: "invalid address",
		StackOverflow:  "stack overflow",
		StackUnderflow: "stack underflow",
	}[f]; ok {
		return s
	}
	return fmt.Sprintf("unknown fault (%.2x)", byte(f))
}

// FaultError is returned by Clock if execution is halted by the program.
type FaultError struct {
	Fault Fault
	Code  uint16 // the offending instruction word
	Addr  uint16 // the address it was fetched from
}

func (e FaultError) Error() string {
	return fmt.Sprintf("%v executing %.4x at %.4x", e.Fault, e.Code, e.Addr)
}

// 00E0: zero the display and mark a frame pending.
func (m *Machine) cls(Opcode) {
	m.screen = Framebuffer{}
	m.draw = drawPending
}

// 00EE: return from a subroutine.
func (m *Machine) ret(Opcode) {
	if m.SP == 0 {
		panic(StackUnderflow)
	}
	m.SP--
	m.PC = m.Stack[m.SP]
}

// 1nnn: jump to nnn.
func (m *Machine) jp(op Opcode) {
	m.PC = op.NNN - 2
}

// 2nnn: call the subroutine at nnn, pushing the caller's address.
func (m *Machine) call(op Opcode) {
	if int(m.SP) == len(m.Stack) {
		panic(StackOverflow)
	}
	m.Stack[m.SP] = m.PC
	m.SP++
	m.PC = op.NNN - 2
}

// 3xnn: skip the next instruction if Vx == nn.
func (m *Machine) seImm(op Opcode) {
	if m.V[op.X] == op.NN {
		m.PC += 2
	}
}

// 4xnn: skip the next instruction if Vx != nn.
func (m *Machine) sneImm(op Opcode) {
	if m.V[op.X] != op.NN {
		m.PC += 2
	}
}

// 5xy0: skip the next instruction if Vx == Vy.
func (m *Machine) seReg(op Opcode) {
	if m.V[op.X] == m.V[op.Y] {
		m.PC += 2
	}
}

// 6xnn: Vx = nn.
func (m *Machine) ldImm(op Opcode) {
	m.V[op.X] = op.NN
}

// 7xnn: Vx += nn, wrapping, without touching VF.
func (m *Machine) addImm(op Opcode) {
	m.V[op.X] += op.NN
}

// 8xy0: Vx = Vy.
func (m *Machine) ldReg(op Opcode) {
	m.V[op.X] = m.V[op.Y]
}

// 8xy1: Vx |= Vy.
func (m *Machine) or(op Opcode) {
	m.V[op.X] |= m.V[op.Y]
}

// 8xy2: Vx &= Vy.
func (m *Machine) and(op Opcode) {
	m.V[op.X] &= m.V[op.Y]
}

// 8xy3: Vx ^= Vy.
func (m *Machine) xor(op Opcode) {
	m.V[op.X] ^= m.V[op.Y]
}

// 8xy4: Vx += Vy; VF = 1 on 8-bit overflow, else 0.
// The flag is written before the store.
func (m *Machine) addCarry(op Opcode) {
	sum := uint16(m.V[op.X]) + uint16(m.V[op.Y])
	m.V[0xf] = 0
	if sum > 0xff {
		m.V[0xf] = 1
	}
	m.V[op.X] = byte(sum)
}

// 8xy5: Vx -= Vy; VF = 1 when no borrow occurs, else 0.
func (m *Machine) sub(op Opcode) {
	x, y := m.V[op.X], m.V[op.Y]
	m.V[0xf] = 0
	if x >= y {
		m.V[0xf] = 1
	}
	m.V[op.X] = x - y
}

// 8xy6: VF = low bit of Vx; Vx >>= 1.
func (m *Machine) shr(op Opcode) {
	v := m.V[op.X]
	m.V[0xf] = v & 1
	m.V[op.X] = v >> 1
}

// 8xy6 with LegacyShift: VF = low bit of Vy; Vx = Vy >> 1.
// Vy is left unmodified.
func (m *Machine) shrY(op Opcode) {
	v := m.V[op.Y]
	m.V[0xf] = v & 1
	m.V[op.X] = v >> 1
}

// 8xy7: Vx = Vy - Vx; VF = 1 when no borrow occurs, else 0.
func (m *Machine) subn(op Opcode) {
	x, y := m.V[op.X], m.V[op.Y]
	m.V[0xf] = 0
	if y >= x {
		m.V[0xf] = 1
	}
	m.V[op.X] = y - x
}

// 8xyE: VF = high bit of Vx; Vx <<= 1.
func (m *Machine) shl(op Opcode) {
	v := m.V[op.X]
	m.V[0xf] = v >> 7
	m.V[op.X] = v << 1
}

// 8xyE with LegacyShift: VF = high bit of Vy; Vx = Vy << 1.
// Vy is left unmodified.
func (m *Machine) shlY(op Opcode) {
	v := m.V[op.Y]
	m.V[0xf] = v >> 7
	m.V[op.X] = v << 1
}

// 9xy0: skip the next instruction if Vx != Vy.
func (m *Machine) sneReg(op Opcode) {
	if m.V[op.X] != m.V[op.Y] {
		m.PC += 2
	}
}

// Annn: I = nnn.
func (m *Machine) ldI(op Opcode) {
	m.I = op.NNN
}

// Bnnn: jump to nnn + V0.
func (m *Machine) jpV0(op Opcode) {
	m.PC = op.NNN + uint16(m.V[0]) - 2
}

// Cxnn: Vx = random byte AND nn.
func (m *Machine) rnd(op Opcode) {
	m.V[op.X] = m.randByte() & op.NN
}

// Dxyn: XOR the n-byte sprite at I onto the display at (Vx, Vy).
// Each sprite byte spans at most two screen bytes; both halves wrap
// around the screen edges. VF reports whether any lit pixel was erased.
func (m *Machine) drw(op Opcode) {
	if int(m.I)+int(op.N) > MemSize {
		panic(InvalidAddress)
	}
	m.V[0xf] = 0
	m.draw = drawPending
	col, shift := m.V[op.X]/8%8, m.V[op.X]%8
	for i := byte(0); i < op.N; i++ {
		row := (m.V[op.Y] + i) % ScreenHeight
		sprite := m.Mem[m.I+uint16(i)]

		p := int(row)*8 + int(col)
		if m.screen[p]&(sprite>>shift) != 0 {
			m.V[0xf] = 1
		}
		m.screen[p] ^= sprite >> shift

		if shift == 0 {
			continue
		}
		p = int(row)*8 + int((col+1)%8)
		if m.screen[p]&(sprite<<(8-shift)) != 0 {
			m.V[0xf] = 1
		}
		m.screen[p] ^= sprite << (8 - shift)
	}
}

// Ex9E: skip the next instruction if the key in Vx is pressed.
func (m *Machine) skp(op Opcode) {
	if m.Keys[m.V[op.X]&0xf] {
		m.PC += 2
	}
}

// ExA1: skip the next instruction if the key in Vx is not pressed.
func (m *Machine) sknp(op Opcode) {
	if !m.Keys[m.V[op.X]&0xf] {
		m.PC += 2
	}
}

// Fx07: Vx = delay timer.
func (m *Machine) ldFromDelay(op Opcode) {
	m.V[op.X] = m.Delay
}

// Fx0A: store the lowest pressed key in Vx, or rewind PC so the
// instruction re-executes on the next Clock. The rewind yields control
// to the driver between attempts instead of blocking.
func (m *Machine) waitKey(op Opcode) {
	for i, down := range m.Keys {
		if down {
			m.V[op.X] = byte(i)
			return
		}
	}
	m.PC -= 2
}

// Fx15: delay timer = Vx.
func (m *Machine) setDelay(op Opcode) {
	m.Delay = m.V[op.X]
}

// Fx18: sound timer = Vx.
func (m *Machine) setSound(op Opcode) {
	m.Sound = m.V[op.X]
}

// Fx1E: I += Vx, faulting if the result leaves memory.
func (m *Machine) addI(op Opcode) {
	i := m.I + uint16(m.V[op.X])
	if i >= MemSize {
		panic(InvalidAddress)
	}
	m.I = i
}

// Fx29: I = address of the builtin glyph for the digit in Vx.
func (m *Machine) ldFont(op Opcode) {
	d := m.V[op.X]
	if d > 0xf {
		panic(InvalidAddress)
	}
	m.I = uint16(d) * 5
}

// Fx33: write the decimal digits of Vx to I, I+1, I+2.
func (m *Machine) bcd(op Opcode) {
	if int(m.I)+2 >= MemSize {
		panic(InvalidAddress)
	}
	v := m.V[op.X]
	m.Mem[m.I] = v / 100
	m.Mem[m.I+1] = v / 10 % 10
	m.Mem[m.I+2] = v % 10
}

// Fx55: copy V0..Vx to memory at I, leaving I unmodified.
func (m *Machine) saveRegs(op Opcode) {
	if int(m.I)+int(op.X) >= MemSize {
		panic(InvalidAddress)
	}
	for i := byte(0); i <= op.X; i++ {
		m.Mem[m.I+uint16(i)] = m.V[i]
	}
}

// Fx65: copy memory at I to V0..Vx, leaving I unmodified.
func (m *Machine) loadRegs(op Opcode) {
	if int(m.I)+int(op.X) >= MemSize {
		panic(InvalidAddress)
	}
	for i := byte(0); i <= op.X; i++ {
		m.V[i] = m.Mem[m.I+uint16(i)]
	}
}
