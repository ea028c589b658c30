package usecase_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/eliteGoblin/expurgate/internal/domain"
	"github.com/eliteGoblin/expurgate/internal/policy"
	"github.com/eliteGoblin/expurgate/internal/usecase"
	"github.com/eliteGoblin/expurgate/test/fixtures"
)

var _ = Describe("Scan and bulk close", func() {
	var (
		desktop    *fixtures.FakeDesktop
		scanner    *usecase.ScannerImpl
		dispatcher *usecase.DispatcherImpl
		lists      *policy.Lists
	)

	scan := func() *domain.ScanResult {
		result, err := scanner.Scan(context.Background(), lists)
		Expect(err).NotTo(HaveOccurred())
		return result
	}

	BeforeEach(func() {
		desktop = fixtures.NewFakeDesktop()
		scanner = usecase.NewScanner(desktop, desktop, policy.NewHeuristic("expurgate.exe"), zap.NewNop())
		dispatcher = usecase.NewDispatcher(desktop, zap.NewNop())
		lists = policy.NewLists()
	})

	Context("with a user app next to shell processes", func() {
		var appWindow domain.WindowHandle

		BeforeEach(func() {
			appWindow = desktop.AddApp(100, "app.exe")
			desktop.AddApp(200, "svchost.exe")
			desktop.AddApp(300, "explorer.exe")
		})

		It("only the user app is closable", func() {
			Expect(scan().Closable).To(Equal(domain.AppSet{"app.exe": 100}))
		})

		It("a bulk close posts to the user app only", func() {
			result := scan()
			sweep := dispatcher.CloseAll(domain.TriggerHotkey, usecase.Targets(result, lists), lists.ShowAll())

			Expect(sweep.Posted).To(ConsistOf(uint32(100)))
			Expect(desktop.Closed()).To(ConsistOf(appWindow))
		})

		Context("when app.exe is on the allow list", func() {
			BeforeEach(func() {
				lists.Allow.Add("app.exe")
			})

			It("nothing is closable", func() {
				Expect(scan().Closable).To(BeEmpty())
			})

			It("a bulk close posts nothing", func() {
				result := scan()
				sweep := dispatcher.CloseAll(domain.TriggerHotkey, usecase.Targets(result, lists), lists.ShowAll())
				Expect(sweep.Posted).To(BeEmpty())
				Expect(desktop.Closed()).To(BeEmpty())
			})
		})
	})

	Context("with a helper process", func() {
		It("is excluded whatever its pid", func() {
			for _, pid := range []uint32{8, 1234, 99999} {
				desktop.AddApp(pid, "MyHelperTool.exe")
			}
			Expect(scan().Closable).To(BeEmpty())
		})
	})

	Context("with the kernel System process", func() {
		It("is excluded by its reserved pid", func() {
			desktop.AddApp(4, "System")
			Expect(scan().Candidates).To(HaveKey("System"))
			Expect(scan().Closable).To(BeEmpty())
		})
	})

	Context("with figma.exe on the kill list", func() {
		var figmaWindow domain.WindowHandle

		BeforeEach(func() {
			desktop.AddApp(100, "app.exe")
			desktop.AddProcess(500, "figma.exe")
			figmaWindow = desktop.AddWindow(fixtures.FakeWindow{PID: 500, Visible: true, Tool: true})
			lists.Kill.Add("figma.exe")
		})

		It("figma.exe is not in the closable set", func() {
			Expect(scan().Closable).NotTo(HaveKey("figma.exe"))
		})

		It("a bulk close still posts to pid 500's window", func() {
			result := scan()
			sweep := dispatcher.CloseAll(domain.TriggerHotkey, usecase.Targets(result, lists), lists.ShowAll())

			Expect(sweep.Posted).To(ContainElement(uint32(500)))
			Expect(desktop.Closed()).To(ContainElement(figmaWindow))
		})
	})
})
