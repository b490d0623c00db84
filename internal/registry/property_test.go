package registry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"

	"github.com/roach88/noderegistry/internal/notify"
)

// registryModel is the reference model the registry is checked against.
type registryModel struct {
	owner    Principal
	managers map[Principal]bool
	nodes    map[string]bool // url -> approved
}

func (m *registryModel) isManager(p Principal) bool {
	return p == m.owner || m.managers[p]
}

var (
	propPrincipals = []Principal{"owner", "m1", "m2", "u1", "u2"}
	propURLs       = []string{"https://a", "https://b", "https://c", "https://d", "https://e", ""}
)

func TestRegistry_StateMachine(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		ctx := context.Background()
		rec := notify.NewRecorder()
		reg, err := New(ctx, "owner", WithNotifier(rec))
		if err != nil {
			rt.Fatalf("New: %v", err)
		}
		model := &registryModel{
			owner:    "owner",
			managers: map[Principal]bool{"owner": true},
			nodes:    map[string]bool{},
		}

		principal := rapid.SampledFrom(propPrincipals)
		url := rapid.SampledFrom(propURLs)

		rt.Repeat(map[string]func(*rapid.T){
			"AddNode": func(rt *rapid.T) {
				caller, u := principal.Draw(rt, "caller"), url.Draw(rt, "url")
				approved, err := reg.AddNode(ctx, caller, u)
				_, exists := model.nodes[u]
				switch {
				case u == "":
					assert.Equal(rt, CodeInvalidArgument, CodeOf(err))
				case exists:
					assert.Equal(rt, CodeAlreadyExists, CodeOf(err))
				default:
					assert.NoError(rt, err)
					assert.Equal(rt, model.isManager(caller), approved)
					model.nodes[u] = approved
				}
			},
			"ApproveNode": func(rt *rapid.T) {
				caller, u := principal.Draw(rt, "caller"), url.Draw(rt, "url")
				err := reg.ApproveNode(ctx, caller, u)
				approved, exists := model.nodes[u]
				switch {
				case !model.isManager(caller):
					assert.Equal(rt, CodePermissionDenied, CodeOf(err))
				case !exists:
					assert.Equal(rt, CodeNotFound, CodeOf(err))
				case approved:
					assert.Equal(rt, CodeAlreadyApproved, CodeOf(err))
				default:
					assert.NoError(rt, err)
					model.nodes[u] = true
				}
			},
			"ApproveNodes": func(rt *rapid.T) {
				caller := principal.Draw(rt, "caller")
				urls := rapid.SliceOfN(url, 0, 4).Draw(rt, "urls")
				applied, err := reg.ApproveNodes(ctx, caller, urls)
				if !model.isManager(caller) {
					assert.Equal(rt, CodePermissionDenied, CodeOf(err))
					return
				}
				assert.NoError(rt, err)
				var want []string
				for _, u := range urls {
					if approved, ok := model.nodes[u]; ok && !approved {
						model.nodes[u] = true
						want = append(want, u)
					}
				}
				assert.ElementsMatch(rt, want, applied)
			},
			"RemoveNode": func(rt *rapid.T) {
				caller, u := principal.Draw(rt, "caller"), url.Draw(rt, "url")
				err := reg.RemoveNode(ctx, caller, u)
				_, exists := model.nodes[u]
				switch {
				case !model.isManager(caller):
					assert.Equal(rt, CodePermissionDenied, CodeOf(err))
				case !exists:
					assert.Equal(rt, CodeNotFound, CodeOf(err))
				default:
					assert.NoError(rt, err)
					delete(model.nodes, u)
				}
			},
			"RemoveNodes": func(rt *rapid.T) {
				caller := principal.Draw(rt, "caller")
				urls := rapid.SliceOfN(url, 0, 4).Draw(rt, "urls")
				removed, err := reg.RemoveNodes(ctx, caller, urls)
				if !model.isManager(caller) {
					assert.Equal(rt, CodePermissionDenied, CodeOf(err))
					return
				}
				assert.NoError(rt, err)
				var want []string
				for _, u := range urls {
					if _, ok := model.nodes[u]; ok {
						delete(model.nodes, u)
						want = append(want, u)
					}
				}
				assert.ElementsMatch(rt, want, removed)
			},
			"AddManager": func(rt *rapid.T) {
				caller, p := principal.Draw(rt, "caller"), principal.Draw(rt, "addr")
				err := reg.AddManager(ctx, caller, p)
				switch {
				case caller != model.owner:
					assert.Equal(rt, CodePermissionDenied, CodeOf(err))
				case model.managers[p]:
					assert.Equal(rt, CodeAlreadyExists, CodeOf(err))
				default:
					assert.NoError(rt, err)
					model.managers[p] = true
				}
			},
			"RemoveManager": func(rt *rapid.T) {
				caller, p := principal.Draw(rt, "caller"), principal.Draw(rt, "addr")
				err := reg.RemoveManager(ctx, caller, p)
				switch {
				case caller != model.owner:
					assert.Equal(rt, CodePermissionDenied, CodeOf(err))
				case p == model.owner:
					assert.Equal(rt, CodeInvariantViolation, CodeOf(err))
				case !model.managers[p]:
					assert.Equal(rt, CodeNotFound, CodeOf(err))
				default:
					assert.NoError(rt, err)
					delete(model.managers, p)
				}
			},
			"TransferOwnership": func(rt *rapid.T) {
				caller, p := principal.Draw(rt, "caller"), principal.Draw(rt, "new_owner")
				err := reg.TransferOwnership(ctx, caller, p)
				if caller != model.owner {
					assert.Equal(rt, CodePermissionDenied, CodeOf(err))
					return
				}
				assert.NoError(rt, err)
				model.owner = p
			},
			"": func(rt *rapid.T) {
				checkInvariants(rt, reg)

				assert.Equal(rt, model.owner, reg.Owner())
				for _, p := range propPrincipals {
					assert.Equal(rt, model.isManager(p), reg.IsManager(p), "IsManager(%q)", p)
				}
				approved, pending := 0, 0
				for u, a := range model.nodes {
					info, err := reg.GetNodeInfo(u)
					if assert.NoError(rt, err) {
						assert.Equal(rt, a, info.Approved, "approval of %q", u)
					}
					if a {
						approved++
					} else {
						pending++
					}
				}
				assert.Equal(rt, approved, reg.ApprovedNodeCount())
				assert.Equal(rt, pending, reg.PendingNodeCount())

				restored, err := Restore(ctx, rec.Events())
				if assert.NoError(rt, err) {
					assert.Equal(rt, reg.Snapshot(), restored.Snapshot(), "replay must reproduce list order")
				}
			},
		})
	})
}
