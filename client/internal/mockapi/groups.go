package mockapi

import (
	"encoding/json"
	"io"
	"net/http"
	"slices"
	"strconv"
	"strings"

	"NarcissusTCG/client/internal/api"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

type role int

const (
	roleNone role = iota
	rolePending
	roleMember
	roleAdmin
	roleOwner
)

type group struct {
	api.Group
	roles    map[string]role
	notices  []api.GroupMessage
	messages []api.GroupMessage
}

func (g *group) role(uid string) role {
	return g.roles[uid]
}

func (g *group) isMember(uid string) bool {
	return g.roles[uid] >= roleMember
}

func (g *group) settings(in api.GroupSettings) {
	g.Name = in.Name
	g.Signature = in.Signature
	g.Tags = slices.Clone(in.Tags)
	g.AllowSearch = in.AllowSearch
	g.JoinFree = in.JoinFree
}

func sortGroups(list []api.Group) []api.Group {
	slices.SortFunc(list, func(a, b api.Group) int { return strings.Compare(a.Name, b.Name) })
	return list
}

// groupFor risolve il gruppo della rotta e verifica il ruolo minimo.
// Va chiamata con s.mu gia' preso.
func (s *Server) groupFor(w http.ResponseWriter, r *http.Request, uid string, need role) (*group, bool) {
	g, exists := s.groups[mux.Vars(r)["gid"]]
	if !exists {
		fail(w, "group not found")
		return nil, false
	}
	if g.role(uid) < need {
		if need == roleMember {
			fail(w, "not a group member")
		} else {
			fail(w, "permission denied")
		}
		return nil, false
	}
	return g, true
}

func (s *Server) handleSearchGroups(w http.ResponseWriter, r *http.Request, uid string) {
	q := r.URL.Query()
	gid := q.Get("group_uid")
	nameIn := strings.ToLower(q.Get("name_in"))
	levelGE, _ := strconv.Atoi(q.Get("level_ge"))

	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]api.Group, 0)
	for _, g := range s.groups {
		switch {
		case !g.AllowSearch || g.isMember(uid):
			continue
		case gid != "" && g.UID != gid:
			continue
		case nameIn != "" && !strings.Contains(strings.ToLower(g.Name), nameIn):
			continue
		case g.Level < levelGE:
			continue
		}
		out = append(out, g.Group)
	}
	ok(w, api.GroupsData{Groups: sortGroups(out)})
}

func (s *Server) handleMyGroups(w http.ResponseWriter, _ *http.Request, uid string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]api.Group, 0)
	for _, g := range s.groups {
		if g.isMember(uid) {
			out = append(out, g.Group)
		}
	}
	ok(w, api.GroupsData{Groups: sortGroups(out)})
}

func (s *Server) handleCreateGroup(w http.ResponseWriter, r *http.Request, uid string) {
	var in api.GroupSettings
	if !decodeBody(w, r, &in) {
		return
	}
	if strings.TrimSpace(in.Name) == "" {
		invalid(w, http.StatusUnprocessableEntity, "group name is required")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	g := &group{Group: api.Group{UID: uuid.NewString(), Level: 1}, roles: map[string]role{uid: roleOwner}}
	g.settings(in)
	s.groups[g.UID] = g
	s.logger.Info("gruppo creato", "gid", g.UID, "owner", uid)
	ok(w, api.CreateGroupData{GroupUID: g.UID})
}

func (s *Server) handleGroupNotice(w http.ResponseWriter, r *http.Request, uid string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, allowed := s.groupFor(w, r, uid, roleMember)
	if !allowed {
		return
	}
	ok(w, api.GroupNoticeData{Notices: append([]api.GroupMessage{}, g.notices...)})
}

func (s *Server) handlePostNotice(w http.ResponseWriter, r *http.Request, uid string) {
	raw, err := io.ReadAll(io.LimitReader(r.Body, 1<<16))
	if err != nil {
		invalid(w, http.StatusBadRequest, "cannot read body")
		return
	}
	var content string
	if err := json.Unmarshal(raw, &content); err != nil || strings.TrimSpace(content) == "" {
		invalid(w, http.StatusUnprocessableEntity, "notice must be a non-empty JSON string")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	g, allowed := s.groupFor(w, r, uid, roleAdmin)
	if !allowed {
		return
	}
	g.notices = append(g.notices, api.GroupMessage{
		GroupUID:    g.UID,
		UserName:    s.players[uid].self.Name,
		Content:     content,
		MessageType: "notice",
		CreatedAt:   s.now(),
	})
	ok(w, nil)
}

func (s *Server) handleUpdateGroup(w http.ResponseWriter, r *http.Request, uid string) {
	var in api.GroupSettings
	if !decodeBody(w, r, &in) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	g, allowed := s.groupFor(w, r, uid, roleAdmin)
	if !allowed {
		return
	}
	if strings.TrimSpace(in.Name) == "" {
		in.Name = g.Name
	}
	g.settings(in)
	ok(w, nil)
}

func (s *Server) handleJoinGroup(w http.ResponseWriter, r *http.Request, uid string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, allowed := s.groupFor(w, r, uid, roleNone)
	if !allowed {
		return
	}
	switch g.role(uid) {
	case rolePending:
		fail(w, "join request already sent")
		return
	case roleNone:
	default:
		fail(w, "already in group")
		return
	}
	if g.JoinFree {
		g.roles[uid] = roleMember
	} else {
		g.roles[uid] = rolePending
	}
	ok(w, nil)
}

func (s *Server) handleLeaveGroup(w http.ResponseWriter, r *http.Request, uid string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, allowed := s.groupFor(w, r, uid, roleMember)
	if !allowed {
		return
	}
	if g.role(uid) == roleOwner {
		fail(w, "owner must transfer or dissolve the group")
		return
	}
	delete(g.roles, uid)
	ok(w, nil)
}

func (s *Server) handleKickMember(w http.ResponseWriter, r *http.Request, uid string) {
	target := mux.Vars(r)["uid"]
	s.mu.Lock()
	defer s.mu.Unlock()
	g, allowed := s.groupFor(w, r, uid, roleAdmin)
	if !allowed {
		return
	}
	if !g.isMember(target) {
		fail(w, "member not found")
		return
	}
	if g.role(target) >= g.role(uid) {
		fail(w, "permission denied")
		return
	}
	delete(g.roles, target)
	ok(w, nil)
}

func (s *Server) handleJoinRequests(w http.ResponseWriter, r *http.Request, uid string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, allowed := s.groupFor(w, r, uid, roleAdmin)
	if !allowed {
		return
	}
	out := make([]api.User, 0)
	for member, rl := range g.roles {
		if rl == rolePending {
			out = append(out, s.players[member].self.User)
		}
	}
	slices.SortFunc(out, func(a, b api.User) int { return strings.Compare(a.Name, b.Name) })
	ok(w, api.JoinRequestsData{Members: out})
}

func (s *Server) handleReviewJoin(w http.ResponseWriter, r *http.Request, uid string) {
	target := mux.Vars(r)["uid"]
	agree := r.URL.Query().Get("is_agree") == "true"

	s.mu.Lock()
	defer s.mu.Unlock()
	g, allowed := s.groupFor(w, r, uid, roleAdmin)
	if !allowed {
		return
	}
	if g.role(target) != rolePending {
		fail(w, "join request not found")
		return
	}
	if agree {
		g.roles[target] = roleMember
	} else {
		delete(g.roles, target)
	}
	ok(w, nil)
}

func (s *Server) handleAppointAdmin(w http.ResponseWriter, r *http.Request, uid string) {
	s.changeRole(w, r, uid, roleMember, roleAdmin)
}

func (s *Server) handleDismissAdmin(w http.ResponseWriter, r *http.Request, uid string) {
	s.changeRole(w, r, uid, roleAdmin, roleMember)
}

// changeRole e' riservata all'owner e sposta target da from a to.
func (s *Server) changeRole(w http.ResponseWriter, r *http.Request, uid string, from, to role) {
	target := mux.Vars(r)["uid"]
	s.mu.Lock()
	defer s.mu.Unlock()
	g, allowed := s.groupFor(w, r, uid, roleOwner)
	if !allowed {
		return
	}
	if g.role(target) != from {
		fail(w, "member not found")
		return
	}
	g.roles[target] = to
	ok(w, nil)
}

func (s *Server) handleTransferOwner(w http.ResponseWriter, r *http.Request, uid string) {
	target := mux.Vars(r)["uid"]
	s.mu.Lock()
	defer s.mu.Unlock()
	g, allowed := s.groupFor(w, r, uid, roleOwner)
	if !allowed {
		return
	}
	if target == uid || !g.isMember(target) {
		fail(w, "member not found")
		return
	}
	g.roles[target] = roleOwner
	g.roles[uid] = roleAdmin
	ok(w, nil)
}

func (s *Server) handleDissolveGroup(w http.ResponseWriter, r *http.Request, uid string) {
	s.mu.Lock()
	g, allowed := s.groupFor(w, r, uid, roleOwner)
	if !allowed {
		s.mu.Unlock()
		return
	}
	delete(s.groups, g.UID)
	s.mu.Unlock()

	s.hub.dropGroup(g.UID)
	ok(w, nil)
}
