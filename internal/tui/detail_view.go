package tui

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"github.com/todochimp/chimp/internal/model"
)

// stagedFile is a local selection waiting to be uploaded. The key is a local
// uuid; upload results refer back to it.
type stagedFile struct {
	key  string
	path string
}

type detailTaskMsg struct {
	task model.Task
	err  error
}

type detailCommentsMsg struct {
	comments []model.Comment
	err      error
}

type detailAttachmentsMsg struct {
	attachments []model.Attachment
	err         error
}

type detailRaciMsg struct {
	rows []model.RaciAssignment
	err  error
}

type commentPostedMsg struct{ err error }

type attachmentUploadedMsg struct {
	key         string
	attachments []model.Attachment // refreshed list after the upload
	err         error
}

type attachmentDeletedMsg struct {
	id  string
	err error
}

// loadSlot tracks one of the four independent fetches. Each has its own
// loading flag and error; one failing never blocks the others.
type loadSlot struct {
	loading bool
	err     error
}

func (s *loadSlot) begin()         { s.loading = true; s.err = nil }
func (s *loadSlot) done(err error) { s.loading = false; s.err = err }
func (s loadSlot) failed() bool    { return s.err != nil }
func (s loadSlot) errText() string { return errorText(s.err) }

// detailView is the read-only task screen with comments, attachments and the
// RACI summary.
type detailView struct {
	app    *App
	taskID string

	task        model.Task
	comments    []model.Comment
	attachments []model.Attachment
	raci        []model.RaciAssignment

	taskSlot        loadSlot
	commentsSlot    loadSlot
	attachmentsSlot loadSlot
	raciSlot        loadSlot

	commentInput textinput.Model
	fileInput    textinput.Model
	typing       bool // comment input focused
	picking      bool // file path input focused

	staged    []stagedFile
	uploading bool
	posting   bool

	cursor int // attachment cursor for deletion
}

func newDetailView(app *App, taskID string) *detailView {
	v := &detailView{app: app, taskID: taskID}
	v.commentInput = newField("write a comment")
	v.commentInput.CharLimit = 1000
	v.commentInput.Width = 60
	v.fileInput = newField("path of file to attach")
	v.fileInput.Width = 60
	return v
}

// init fires the four fetches in one batch.
func (v *detailView) init() tea.Cmd {
	v.taskSlot.begin()
	v.commentsSlot.begin()
	v.attachmentsSlot.begin()
	v.raciSlot.begin()
	return tea.Batch(v.fetchTask(), v.fetchComments(), v.fetchAttachments(), v.fetchRaci())
}

func (v *detailView) fetchTask() tea.Cmd {
	client, id := v.app.client, v.taskID
	return func() tea.Msg {
		task, err := client.GetTask(id)
		return detailTaskMsg{task: task, err: err}
	}
}

func (v *detailView) fetchComments() tea.Cmd {
	client, id := v.app.client, v.taskID
	return func() tea.Msg {
		comments, err := client.ListComments(id)
		return detailCommentsMsg{comments: comments, err: err}
	}
}

func (v *detailView) fetchAttachments() tea.Cmd {
	client, id := v.app.client, v.taskID
	return func() tea.Msg {
		attachments, err := client.ListAttachments(id)
		return detailAttachmentsMsg{attachments: attachments, err: err}
	}
}

func (v *detailView) fetchRaci() tea.Cmd {
	client, id := v.app.client, v.taskID
	return func() tea.Msg {
		rows, err := client.ListAssignments(id)
		return detailRaciMsg{rows: rows, err: err}
	}
}

func (v *detailView) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case detailTaskMsg:
		v.taskSlot.done(msg.err)
		if msg.err == nil {
			v.task = msg.task
		}
		return nil
	case detailCommentsMsg:
		v.commentsSlot.done(msg.err)
		if msg.err == nil {
			v.comments = msg.comments
		}
		return nil
	case detailAttachmentsMsg:
		v.attachmentsSlot.done(msg.err)
		if msg.err == nil {
			v.attachments = msg.attachments
		}
		return nil
	case detailRaciMsg:
		v.raciSlot.done(msg.err)
		if msg.err == nil {
			v.raci = msg.rows
		}
		return nil

	case commentPostedMsg:
		v.posting = false
		if msg.err != nil {
			return v.app.notifyError("post comment", msg.err)
		}
		v.commentInput.SetValue("")
		// Re-fetch rather than inserting locally; the server owns ordering.
		v.commentsSlot.begin()
		return v.fetchComments()

	case attachmentUploadedMsg:
		v.unstage(msg.key)
		if msg.err != nil {
			v.uploading = false
			return v.app.notifyError("upload file", msg.err)
		}
		v.attachments = msg.attachments
		if next := v.nextUpload(); next != nil {
			return next
		}
		v.uploading = false
		return v.app.notify(noticeInfo, "Upload complete")

	case attachmentDeletedMsg:
		if msg.err != nil {
			return v.app.notifyError("delete attachment", msg.err)
		}
		kept := v.attachments[:0]
		for _, a := range v.attachments {
			if a.ID != msg.id {
				kept = append(kept, a)
			}
		}
		v.attachments = kept
		if v.cursor >= len(v.attachments) {
			v.cursor = maxInt(0, len(v.attachments)-1)
		}
		return v.app.notify(noticeInfo, "Attachment deleted")

	case tea.KeyMsg:
		return v.handleKey(msg)
	}

	return v.updateInputs(msg)
}

func (v *detailView) handleKey(msg tea.KeyMsg) tea.Cmd {
	if v.typing {
		switch msg.String() {
		case "enter":
			return v.postComment()
		case "esc":
			v.typing = false
			v.commentInput.Blur()
			return nil
		}
		var cmd tea.Cmd
		v.commentInput, cmd = v.commentInput.Update(msg)
		return cmd
	}
	if v.picking {
		switch msg.String() {
		case "enter":
			return v.stageFile()
		case "esc":
			v.picking = false
			v.fileInput.Blur()
			return nil
		}
		var cmd tea.Cmd
		v.fileInput, cmd = v.fileInput.Update(msg)
		return cmd
	}

	switch msg.String() {
	case "esc", "q":
		return func() tea.Msg { return showDashboardMsg{} }
	case "e":
		task := v.task
		return func() tea.Msg { return openTaskFormMsg{task: &task} }
	case "m":
		v.typing = true
		return v.commentInput.Focus()
	case "a":
		v.picking = true
		return v.fileInput.Focus()
	case "u":
		return v.startUploads()
	case "up", "k":
		if v.cursor > 0 {
			v.cursor--
		}
	case "down", "j":
		if v.cursor < len(v.attachments)-1 {
			v.cursor++
		}
	case "x":
		if v.cursor < len(v.attachments) {
			att := v.attachments[v.cursor]
			client, taskID := v.app.client, v.taskID
			v.app.askConfirm(fmt.Sprintf("Delete %s?", att.FileName), func() tea.Msg {
				return attachmentDeletedMsg{id: att.ID, err: client.DeleteAttachment(taskID, att.ID)}
			})
		}
	case "r":
		return v.init()
	}
	return nil
}

func (v *detailView) postComment() tea.Cmd {
	body := strings.TrimSpace(v.commentInput.Value())
	if body == "" || v.posting {
		return nil
	}
	v.posting = true
	client, id := v.app.client, v.taskID
	return func() tea.Msg {
		_, err := client.AddComment(id, body)
		return commentPostedMsg{err: err}
	}
}

func (v *detailView) stageFile() tea.Cmd {
	path := strings.TrimSpace(v.fileInput.Value())
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); err != nil {
		return v.app.notify(noticeError, "Cannot read %s", path)
	}
	v.staged = append(v.staged, stagedFile{key: uuid.NewString(), path: path})
	v.fileInput.SetValue("")
	return nil
}

// startUploads kicks off the staged queue. Files go up one at a time; each
// successful upload refreshes the list before the next starts.
func (v *detailView) startUploads() tea.Cmd {
	if v.uploading || len(v.staged) == 0 {
		return nil
	}
	v.uploading = true
	return v.nextUpload()
}

func (v *detailView) nextUpload() tea.Cmd {
	if len(v.staged) == 0 {
		return nil
	}
	file := v.staged[0]
	client, taskID := v.app.client, v.taskID
	return func() tea.Msg {
		content, err := os.ReadFile(file.path)
		if err != nil {
			return attachmentUploadedMsg{key: file.key, err: err}
		}
		if _, err := client.UploadAttachment(taskID, filepath.Base(file.path), content); err != nil {
			return attachmentUploadedMsg{key: file.key, err: err}
		}
		attachments, err := client.ListAttachments(taskID)
		return attachmentUploadedMsg{key: file.key, attachments: attachments, err: err}
	}
}

func (v *detailView) unstage(key string) {
	kept := v.staged[:0]
	for _, f := range v.staged {
		if f.key != key {
			kept = append(kept, f)
		}
	}
	v.staged = kept
}

func (v *detailView) updateInputs(msg tea.Msg) tea.Cmd {
	var cmds []tea.Cmd
	if v.typing {
		var cmd tea.Cmd
		v.commentInput, cmd = v.commentInput.Update(msg)
		cmds = append(cmds, cmd)
	}
	if v.picking {
		var cmd tea.Cmd
		v.fileInput, cmd = v.fileInput.Update(msg)
		cmds = append(cmds, cmd)
	}
	return tea.Batch(cmds...)
}

func (v *detailView) View() string {
	var b strings.Builder

	switch {
	case v.taskSlot.loading:
		b.WriteString(dimStyle.Render("loading task…") + "\n\n")
	case v.taskSlot.failed():
		b.WriteString(fieldErrorStyle.Render("task: "+v.taskSlot.errText()) + "\n\n")
	default:
		b.WriteString(fmt.Sprintf("%s\n", v.task.Title))
		b.WriteString(fmt.Sprintf("%s · %s", statusLabel(v.task.Status), priorityLabel(v.task.Priority)))
		if v.task.DueDate != "" {
			b.WriteString(dimStyle.Render("  due " + dateOnly(v.task.DueDate)))
		}
		b.WriteString("\n")
		if v.task.CreatedBy != nil {
			b.WriteString(dimStyle.Render(fmt.Sprintf("created by %s %s", v.task.CreatedBy.Name, humanize.Time(v.task.CreatedAt))) + "\n")
		}
		if v.task.Description != "" {
			b.WriteString("\n" + v.task.Description + "\n")
		}
	}

	b.WriteString("\n" + v.renderRaci())
	b.WriteString("\n" + v.renderAttachments())
	b.WriteString("\n" + v.renderComments())

	b.WriteString("\n" + hintStyle.Render("m comment · a attach file · u upload staged · x delete attachment · e edit · r refresh · esc back"))
	return b.String()
}

func (v *detailView) renderRaci() string {
	var b strings.Builder
	b.WriteString("RACI\n")
	switch {
	case v.raciSlot.loading:
		b.WriteString(dimStyle.Render("  loading…") + "\n")
	case v.raciSlot.failed():
		b.WriteString(fieldErrorStyle.Render("  "+v.raciSlot.errText()) + "\n")
	case len(v.raci) == 0:
		b.WriteString(dimStyle.Render("  no assignments") + "\n")
	default:
		for _, row := range v.raci {
			line := fmt.Sprintf("  %-30s %s", row.Email, row.RaciRole.FriendlyName())
			if row.Status == model.AssignmentPending {
				line += dimStyle.Render("  (pending)")
			}
			b.WriteString(line + "\n")
		}
	}
	return b.String()
}

func (v *detailView) renderAttachments() string {
	var b strings.Builder
	b.WriteString("Attachments\n")
	switch {
	case v.attachmentsSlot.loading:
		b.WriteString(dimStyle.Render("  loading…") + "\n")
	case v.attachmentsSlot.failed():
		b.WriteString(fieldErrorStyle.Render("  "+v.attachmentsSlot.errText()) + "\n")
	case len(v.attachments) == 0 && len(v.staged) == 0:
		b.WriteString(dimStyle.Render("  no attachments") + "\n")
	}
	for i, att := range v.attachments {
		marker := "  "
		if i == v.cursor {
			marker = selectedRowStyle.Render("▸ ")
		}
		b.WriteString(fmt.Sprintf("%s%s  %s\n", marker, att.FileName, dimStyle.Render(humanize.Time(att.UploadedAt))))
	}
	for _, f := range v.staged {
		b.WriteString(dimStyle.Render(fmt.Sprintf("  %s (staged)", filepath.Base(f.path))) + "\n")
	}
	if v.uploading {
		b.WriteString(dimStyle.Render("  uploading…") + "\n")
	}
	if v.picking {
		b.WriteString("  " + v.fileInput.View() + "\n")
	}
	return b.String()
}

func (v *detailView) renderComments() string {
	var b strings.Builder
	b.WriteString("Comments\n")
	switch {
	case v.commentsSlot.loading:
		b.WriteString(dimStyle.Render("  loading…") + "\n")
	case v.commentsSlot.failed():
		b.WriteString(fieldErrorStyle.Render("  "+v.commentsSlot.errText()) + "\n")
	case len(v.comments) == 0:
		b.WriteString(dimStyle.Render("  no comments yet") + "\n")
	}
	for _, comment := range v.comments {
		author := "someone"
		if comment.Author != nil {
			author = comment.Author.Name
		}
		b.WriteString(fmt.Sprintf("  %s %s\n", author, dimStyle.Render(humanize.Time(comment.CreatedAt))))
		b.WriteString("    " + comment.Body + "\n")
	}
	if v.posting {
		b.WriteString(dimStyle.Render("  posting…") + "\n")
	}
	if v.typing {
		b.WriteString("  " + v.commentInput.View() + "\n")
	}
	return b.String()
}
