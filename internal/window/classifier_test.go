package window

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/eliteGoblin/expurgate/internal/domain"
	"github.com/eliteGoblin/expurgate/test/fixtures"
)

func TestIsUserVisible(t *testing.T) {
	tests := []struct {
		name  string
		setup func(d *fixtures.FakeDesktop) domain.WindowHandle
		want  bool
	}{
		{
			name: "plain visible window",
			setup: func(d *fixtures.FakeDesktop) domain.WindowHandle {
				return d.AddWindow(fixtures.FakeWindow{PID: 1, Visible: true})
			},
			want: true,
		},
		{
			name: "invisible window",
			setup: func(d *fixtures.FakeDesktop) domain.WindowHandle {
				return d.AddWindow(fixtures.FakeWindow{PID: 1})
			},
			want: false,
		},
		{
			name: "cloaked window",
			setup: func(d *fixtures.FakeDesktop) domain.WindowHandle {
				return d.AddWindow(fixtures.FakeWindow{PID: 1, Visible: true, Cloaked: true})
			},
			want: false,
		},
		{
			name: "tool window",
			setup: func(d *fixtures.FakeDesktop) domain.WindowHandle {
				return d.AddWindow(fixtures.FakeWindow{PID: 1, Visible: true, Tool: true})
			},
			want: false,
		},
		{
			name: "invisible root with visible popup",
			setup: func(d *fixtures.FakeDesktop) domain.WindowHandle {
				popup := d.AddWindow(fixtures.FakeWindow{PID: 1, Visible: true})
				return d.AddWindow(fixtures.FakeWindow{PID: 1, Popup: popup})
			},
			want: true,
		},
		{
			name: "owned window resolves through root owner",
			setup: func(d *fixtures.FakeDesktop) domain.WindowHandle {
				root := d.AddWindow(fixtures.FakeWindow{PID: 1, Visible: true})
				return d.AddWindow(fixtures.FakeWindow{PID: 1, Owner: root})
			},
			want: true,
		},
		{
			name: "visible root whose popup is a tool window",
			setup: func(d *fixtures.FakeDesktop) domain.WindowHandle {
				popup := d.AddWindow(fixtures.FakeWindow{PID: 1, Visible: true, Tool: true})
				return d.AddWindow(fixtures.FakeWindow{PID: 1, Visible: true, Popup: popup})
			},
			want: false,
		},
		{
			name: "chain of invisible popups ending visible",
			setup: func(d *fixtures.FakeDesktop) domain.WindowHandle {
				end := d.AddWindow(fixtures.FakeWindow{PID: 1, Visible: true})
				mid := d.AddWindow(fixtures.FakeWindow{PID: 1, Popup: end})
				return d.AddWindow(fixtures.FakeWindow{PID: 1, Popup: mid})
			},
			want: true,
		},
		{
			name: "everything invisible",
			setup: func(d *fixtures.FakeDesktop) domain.WindowHandle {
				end := d.AddWindow(fixtures.FakeWindow{PID: 1})
				return d.AddWindow(fixtures.FakeWindow{PID: 1, Popup: end})
			},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := fixtures.NewFakeDesktop()
			h := tt.setup(d)

			assert.Equal(t, tt.want, IsUserVisible(d, h, false))
			// same state, same answer
			assert.Equal(t, tt.want, IsUserVisible(d, h, false))
			assert.True(t, IsUserVisible(d, h, true), "show-all must bypass every check")
		})
	}
}

func TestIsUserVisible_CyclicPopupChainTerminates(t *testing.T) {
	d := fixtures.NewFakeDesktop()
	a := d.AddWindow(fixtures.FakeWindow{PID: 1})
	b := d.AddWindow(fixtures.FakeWindow{PID: 1, Popup: a})
	d.Window(a).Popup = b

	assert.False(t, IsUserVisible(d, a, false))
}

func TestIsUserVisible_LongChainIsBounded(t *testing.T) {
	d := fixtures.NewFakeDesktop()
	var prev domain.WindowHandle
	for i := 0; i < MaxPopupChain*2; i++ {
		prev = d.AddWindow(fixtures.FakeWindow{PID: 1, Popup: prev})
	}

	assert.False(t, IsUserVisible(d, prev, false))
}

func TestIsUserVisible_UnknownHandle(t *testing.T) {
	d := fixtures.NewFakeDesktop()

	assert.False(t, IsUserVisible(d, 0xdead, false))
	assert.True(t, IsUserVisible(d, 0xdead, true))
}
